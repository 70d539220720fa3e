// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package rag is the client side of the RAG backend's streaming protocol.
//
// A turn is one POST to the stream endpoint carrying the user's question.
// The backend answers with Server-Sent Events:
//
//	event: data
//	data: {"docs":[{"metadata":{"source":"corpus/filing.pdf"}}]}
//
//	event: data
//	data: {"answer":{"content":"The court"}}
//
//	event: end
//
// Client.Stream performs the request and hands each framed Event to a
// callback in arrival order. DecodeChunk turns the payload of a "data" event
// into a model.Chunk for the reducer. Citations resolves citation sources to
// download links on the backend's static file route.
package rag
