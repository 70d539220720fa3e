// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package devserver is a local stand-in for the RAG backend.
//
// It speaks the same wire format as the real service: POST to the stream
// path returns a metadata frame, one data frame listing the retrieved
// documents, the answer as a series of token frames, and a final end frame.
// Cited files are served from the static path, either from a directory on
// disk or from the in-memory corpus.
//
// Retrieval is a keyword overlap score over a small corpus, which is enough
// to drive the client end to end without a model or a vector store.
//
// Sending a question that starts with "!error" makes the server emit an
// error frame mid-stream.
package devserver
