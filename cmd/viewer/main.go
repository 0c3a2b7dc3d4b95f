// Command viewer is a terminal client for watching a document's live
// session: it joins with a token and prints presence, lock and comment
// traffic as it happens. Debugging aid, not a product surface.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	ServerAddr string `envconfig:"VIEWER_SERVER_ADDR" default:"localhost:8080"`
	Token      string `envconfig:"VIEWER_TOKEN" required:"true"`
	DocumentID string `envconfig:"VIEWER_DOCUMENT_ID" required:"true"`
	Colours    bool   `envconfig:"VIEWER_COLOURS" default:"true"`
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if !cfg.Colours {
		color.Disable()
	}

	u := url.URL{Scheme: "ws", Host: cfg.ServerAddr, Path: "/ws", RawQuery: "token=" + url.QueryEscape(cfg.Token)}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	join := envelope{Type: "join-document"}
	join.Payload, _ = json.Marshal(map[string]string{"documentId": cfg.DocumentID})
	if err := conn.WriteJSON(join); err != nil {
		log.Fatalf("Join failed: %v", err)
	}
	color.Green.Printf("Watching document %s on %s\n", cfg.DocumentID, cfg.ServerAddr)

	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			log.Fatalf("Connection lost: %v", err)
		}
		render(env)
	}
}

func render(env envelope) {
	switch env.Type {
	case "active-participants":
		var p struct {
			Participants []struct {
				Name  string `json:"name"`
				Email string `json:"email"`
				Role  string `json:"role"`
			} `json:"participants"`
		}
		_ = json.Unmarshal(env.Payload, &p)
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Participant", "Email", "Role"})
		for _, member := range p.Participants {
			table.Append([]string{member.Name, member.Email, member.Role})
		}
		table.Render()

	case "field-locks":
		var p struct {
			Locks []struct {
				FieldID string `json:"fieldId"`
				Holder  struct {
					Name string `json:"name"`
				} `json:"holder"`
			} `json:"locks"`
		}
		_ = json.Unmarshal(env.Payload, &p)
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Locked field", "Holder"})
		for _, lock := range p.Locks {
			table.Append([]string{lock.FieldID, lock.Holder.Name})
		}
		table.Render()

	case "user-joined":
		color.Green.Println(compact(env))
	case "user-left":
		color.Yellow.Println(compact(env))
	case "field-locked", "field-unlocked", "field-lock-denied":
		color.Cyan.Println(compact(env))
	case "document-updated", "update-ack":
		color.Blue.Println(compact(env))
	case "version-conflict", "error":
		color.Red.Println(compact(env))
	default:
		fmt.Println(compact(env))
	}
}

func compact(env envelope) string {
	return fmt.Sprintf("[%s] %s", env.Type, string(env.Payload))
}
