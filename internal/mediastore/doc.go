// Package mediastore keeps uploaded originals and dubbed results on disk.
//
// Stored files are addressed by slash-separated names relative to the store
// root, prefixed with original_videos/ or dubbed_videos/. Names are what the
// job store records; Path resolves them to absolute filesystem locations.
package mediastore
