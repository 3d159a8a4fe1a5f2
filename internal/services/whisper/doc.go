// Package whisper provides speech-to-text for the dubbing pipeline.
//
// Two backends are available. The local backend drives the openai-whisper
// command line tool and reads back its JSON transcript; the openai backend
// calls the hosted transcription API through go-openai. The backend handle is
// constructed lazily on first use and cached for the lifetime of the Service.
package whisper
