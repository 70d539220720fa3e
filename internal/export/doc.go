// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a chat transcript to a file on demand.
//
// Markdown exports list each answer's sources as links under the answer;
// JSON exports carry the same data with resolved citation URLs. Nothing is
// reloaded from these files.
//
//	doc := export.NewDocument(cfg.UI.Title, cfg.StaticBase(), sess.Transcript)
//	path, err := export.ExportToFile(doc, export.NewMarkdownExporter(nil), nil)
package export
