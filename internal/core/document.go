package core

import (
	"encoding/json"
	"strings"
)

// DocumentKind is the file type of an attached document.
type DocumentKind string

const (
	DocumentPDF     DocumentKind = "PDF"
	DocumentDOC     DocumentKind = "DOC"
	DocumentDOCX    DocumentKind = "DOCX"
	DocumentXLS     DocumentKind = "XLS"
	DocumentXLSX    DocumentKind = "XLSX"
	DocumentIMG     DocumentKind = "IMG"
	DocumentUnknown DocumentKind = "UNKNOWN"
)

const (
	defaultDocumentName = "Documento"
	unknownDocumentName = "Documento desconhecido"
	placeholderURL      = "#"
)

// Document describes a file attached to a staff member. URLs are opaque.
type Document struct {
	Name string       `json:"nome"`
	Kind DocumentKind `json:"tipo"`
	URL  string       `json:"url"`
}

// ParseDocumentKind maps free-form type labels to a DocumentKind.
// An empty label defaults to PDF.
func ParseDocumentKind(s string) DocumentKind {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "PDF":
		return DocumentPDF
	case "DOC":
		return DocumentDOC
	case "DOCX":
		return DocumentDOCX
	case "XLS":
		return DocumentXLS
	case "XLSX":
		return DocumentXLSX
	case "IMG", "IMAGEM", "IMAGE", "JPG", "JPEG", "PNG":
		return DocumentIMG
	default:
		return DocumentUnknown
	}
}

// Documents is the document list stored with a staff member. The column
// holds untyped JSON, so decoding is lenient: anything that is not an
// array becomes an empty list and malformed entries become unknown documents.
type Documents []Document

// ParseDocuments decodes raw JSON into a Documents list without failing.
func ParseDocuments(raw []byte) Documents {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return Documents{}
	}
	docs := make(Documents, 0, len(items))
	for _, item := range items {
		docs = append(docs, parseDocument(item))
	}
	return docs
}

func parseDocument(raw json.RawMessage) Document {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Document{Name: unknownDocumentName, Kind: DocumentUnknown, URL: placeholderURL}
	}
	name, nameOK := fields["nome"].(string)
	url, urlOK := fields["url"].(string)
	kind, _ := fields["tipo"].(string)
	if !nameOK && !urlOK {
		return Document{Name: unknownDocumentName, Kind: DocumentUnknown, URL: placeholderURL}
	}
	if strings.TrimSpace(name) == "" {
		name = defaultDocumentName
	}
	if strings.TrimSpace(url) == "" {
		url = placeholderURL
	}
	return Document{Name: name, Kind: ParseDocumentKind(kind), URL: url}
}

func (d *Documents) UnmarshalJSON(b []byte) error {
	*d = ParseDocuments(b)
	return nil
}

func (d Documents) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Document(d))
}
