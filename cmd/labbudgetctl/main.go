// Command labbudgetctl works against a running labbudget server: it
// pulls and pushes the document, converts it to and from CSV, watches a
// local JSON file with autosave, and hashes passwords for configuration.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"labbudget/internal/auth"
	"labbudget/internal/client"
	"labbudget/internal/config"
	"labbudget/internal/core"
	"labbudget/internal/csvio"
	applog "labbudget/internal/log"
)

func main() {
	_ = godotenv.Load()
	applog.Setup()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "pull":
		err = runPull(os.Args[2:])
	case "push":
		err = runPush(os.Args[2:])
	case "export":
		err = runExport(os.Args[2:])
	case "import":
		err = runImport(os.Args[2:])
	case "watch":
		err = runWatch(os.Args[2:])
	case "hash-password":
		err = runHashPassword()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: labbudgetctl <command> [flags]

commands:
  pull           fetch the document and print it as JSON
  push           replace the remote document with a local JSON file
  export         fetch the document and print the records as CSV
  import         replace the remote records with rows from a CSV file
  watch          watch a local JSON file and autosave changes
  hash-password  produce a bcrypt hash for AUTH_PASSWORD_HASH

environment: LABBUDGET_URL, AUTH_USER, AUTH_PASSWORD`)
}

// loginSession logs in lazily against /api/login and caches the token
// for the lifetime of the process.
type loginSession struct {
	baseURL  string
	user     string
	password string

	mu    sync.Mutex
	token string
}

func newLoginSession() (*loginSession, error) {
	baseURL := os.Getenv("LABBUDGET_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8081"
	}
	user := os.Getenv("AUTH_USER")
	password := os.Getenv("AUTH_PASSWORD")
	if user == "" || password == "" {
		return nil, fmt.Errorf("AUTH_USER and AUTH_PASSWORD must be set")
	}
	return &loginSession{baseURL: baseURL, user: user, password: password}, nil
}

func (s *loginSession) Active() bool { return s.user != "" && s.password != "" }

func (s *loginSession) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		return s.token, nil
	}

	payload, _ := json.Marshal(map[string]string{"user": s.user, "password": s.password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/login", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login failed: status %d: %s", resp.StatusCode, body)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding login response: %w", err)
	}
	s.token = out.Token
	return s.token, nil
}

func newClient() (*client.Client, error) {
	session, err := newLoginSession()
	if err != nil {
		return nil, err
	}
	return client.New(session.baseURL, session), nil
}

func runPull(args []string) error {
	fs := flag.NewFlagSet("pull", flag.ExitOnError)
	out := fs.String("out", "", "write to file instead of stdout")
	_ = fs.Parse(args)

	c, err := newClient()
	if err != nil {
		return err
	}

	doc, err := c.Load(context.Background())
	if err != nil {
		return err
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(*out, append(payload, '\n'))
}

func runPush(args []string) error {
	fs := flag.NewFlagSet("push", flag.ExitOnError)
	in := fs.String("in", "", "JSON file holding the document (default stdin)")
	_ = fs.Parse(args)

	raw, err := readInput(*in)
	if err != nil {
		return err
	}
	doc, err := core.DecodeDocument(raw)
	if err != nil {
		return fmt.Errorf("decoding document: %w", err)
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	if err := c.Save(context.Background(), doc); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "pushed %d records\n", len(doc.Expenses))
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "", "write CSV to file instead of stdout")
	_ = fs.Parse(args)

	c, err := newClient()
	if err != nil {
		return err
	}
	doc, err := c.Load(context.Background())
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := csvio.Export(&buf, doc.Expenses); err != nil {
		return err
	}
	return writeOutput(*out, buf.Bytes())
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	in := fs.String("in", "", "CSV file holding the records (default stdin)")
	_ = fs.Parse(args)

	raw, err := readInput(*in)
	if err != nil {
		return err
	}
	records, err := csvio.Import(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("importing CSV: %w", err)
	}

	c, err := newClient()
	if err != nil {
		return err
	}

	// Budgets stay as stored; the import replaces records only.
	doc, err := c.Load(context.Background())
	if err != nil {
		return err
	}
	doc.Expenses = records

	if err := c.Save(context.Background(), doc); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "imported %d records\n", len(records))
	return nil
}

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	in := fs.String("in", "labbudget.json", "JSON file to watch")
	_ = fs.Parse(args)

	cfg := config.Load()
	session, err := newLoginSession()
	if err != nil {
		return err
	}
	c := client.New(session.baseURL, session)

	logger := applog.ForComponent(applog.ComponentCtl)
	saver := client.NewAutosaver(c, session, cfg.AutosaveDelay, func(s client.Status) {
		logger.Info("Autosave status", "status", string(s))
	})
	defer saver.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Watching for changes", "file", *in, "delay", cfg.AutosaveDelay)

	var lastMod time.Time
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			saver.Flush()
			logger.Info("Watch stopped")
			return nil
		case <-ticker.C:
			info, err := os.Stat(*in)
			if err != nil {
				continue
			}
			if !info.ModTime().After(lastMod) {
				continue
			}
			lastMod = info.ModTime()

			raw, err := os.ReadFile(*in)
			if err != nil {
				logger.Warn("Failed to read watched file", "error", err)
				continue
			}
			doc, err := core.DecodeDocument(raw)
			if err != nil {
				logger.Warn("Watched file is not a valid document", "error", err)
				continue
			}
			saver.Schedule(doc)
		}
	}
}

func runHashPassword() error {
	fmt.Fprint(os.Stderr, "password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	hash, err := auth.HashPassword(string(password))
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
