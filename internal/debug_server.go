package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"collab-hub/domain"
	"collab-hub/repositories"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

// InspectRow is one rendered storage entry.
type InspectRow struct {
	Key    string
	Kind   string
	Detail string
}

// StatsProvider supplies the live counters shown above the key table.
type StatsProvider func() map[string]any

// StartDebugServer serves a read-only HTML view over the Badger keyspace
// on a side port: documents under "doc:", comment threads under "cmt:",
// accounts under "user:". Development aid, off by default.
func StartDebugServer(log *slog.Logger, db *badger.DB, port int, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	type pageData struct {
		Prefix string
		Items  []InspectRow
		Stats  map[string]any
	}

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "doc:"
		}

		data := pageData{Prefix: prefix, Stats: make(map[string]any)}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapRow(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	go func() {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		log.Info("debug server listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Warn("debug server stopped", "error", err)
		}
	}()
}

// mapRow decodes a storage entry into a human-readable row based on its
// key family.
func mapRow(key string, val []byte) InspectRow {
	switch {
	case strings.HasPrefix(key, "doc:"):
		var doc domain.Document
		if err := json.Unmarshal(val, &doc); err == nil {
			return InspectRow{Key: key, Kind: "document",
				Detail: fmt.Sprintf("v%d %q modified by %s", doc.Version, doc.Title, doc.LastModifiedBy)}
		}
	case strings.HasPrefix(key, "cmt:"):
		var comment domain.Comment
		if err := json.Unmarshal(val, &comment); err == nil {
			detail := fmt.Sprintf("%s on %s: %s", comment.AuthorName, comment.FieldID, comment.Text)
			if comment.Resolved {
				detail += " [resolved]"
			}
			return InspectRow{Key: key, Kind: "comment", Detail: detail}
		}
	case strings.HasPrefix(key, "cmtid:"):
		return InspectRow{Key: key, Kind: "comment-ptr", Detail: string(val)}
	case strings.HasPrefix(key, "user:"):
		var user repositories.User
		if err := json.Unmarshal(val, &user); err == nil {
			return InspectRow{Key: key, Kind: "user",
				Detail: fmt.Sprintf("%s <%s> role=%s active=%t", user.Name, user.Email, user.Role, user.Active)}
		}
	}
	return InspectRow{Key: key, Kind: "raw", Detail: fmt.Sprintf("%d bytes", len(val))}
}
