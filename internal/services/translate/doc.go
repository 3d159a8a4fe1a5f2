// Package translate converts transcripts into the dubbing target language.
//
// With no model configured the engine passes text through unchanged. The
// huggingface provider runs a transformers translation pipeline through a
// Python helper; the llm provider asks a chat completion endpoint. Whenever
// a backend produces no usable text, the trimmed input is returned instead.
package translate
