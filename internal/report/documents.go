package report

import (
	"strconv"

	"conservadora/internal/core"
)

type OwnerKind string

const (
	OwnerStaff       OwnerKind = "funcionaria"
	OwnerCondominium OwnerKind = "condominio"
)

const contractName = "Contrato Digital"

// DocumentEntry is a document listed with its owner. Entries are derived
// from staff and condominium records on every call and never stored.
type DocumentEntry struct {
	Key       string            `json:"id"`
	Name      string            `json:"nome"`
	Kind      core.DocumentKind `json:"tipo"`
	URL       string            `json:"url"`
	OwnerID   string            `json:"relacionado_id"`
	OwnerKind OwnerKind         `json:"relacionado_tipo"`
	OwnerName string            `json:"relacionado_nome"`
}

// Documents lists the documents attached to staff members followed by the
// digital contract of each condominium that has one. Keys are
// "func-<staff id>-<document name>" and "cond-<condominium id>"; a key already
// taken gets the first free numeric suffix.
func Documents(staff []core.Staff, condos []core.Condominium) []DocumentEntry {
	var out []DocumentEntry
	used := map[string]bool{}
	for _, s := range staff {
		for _, doc := range s.Documents {
			key := uniqueKey(used, "func-"+s.ID+"-"+doc.Name)
			out = append(out, DocumentEntry{
				Key:       key,
				Name:      doc.Name,
				Kind:      doc.Kind,
				URL:       doc.URL,
				OwnerID:   s.ID,
				OwnerKind: OwnerStaff,
				OwnerName: s.Name,
			})
		}
	}
	for _, c := range condos {
		url := core.Ref(c.ContractURL)
		if url == "" {
			continue
		}
		out = append(out, DocumentEntry{
			Key:       uniqueKey(used, "cond-"+c.ID),
			Name:      contractName,
			Kind:      core.DocumentPDF,
			URL:       url,
			OwnerID:   c.ID,
			OwnerKind: OwnerCondominium,
			OwnerName: c.Name,
		})
	}
	if out == nil {
		out = []DocumentEntry{}
	}
	return out
}

func uniqueKey(used map[string]bool, base string) string {
	key := base
	for n := 2; used[key]; n++ {
		key = base + "-" + strconv.Itoa(n)
	}
	used[key] = true
	return key
}
