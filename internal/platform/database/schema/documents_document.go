// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// DocumentsDocumentTable represents the 'documents.document' table
type DocumentsDocumentTable struct {
	Table      string
	Collection string
	Key        string
	Fields     string
	CreateTime string
	UpdateTime string
}

// DocumentsDocument is the schema definition for documents.document
var DocumentsDocument = DocumentsDocumentTable{
	Table:      "documents.document",
	Collection: "collection",
	Key:        "key",
	Fields:     "fields",
	CreateTime: "create_time",
	UpdateTime: "update_time",
}
