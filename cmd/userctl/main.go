package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// userctl drives the portal's admin user endpoints from the command line.

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()

	baseURL := strings.TrimRight(os.Getenv("PORTAL_API_URL"), "/")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	token := strings.TrimSpace(os.Getenv("PORTAL_API_TOKEN"))
	if token == "" {
		log.Fatal().Msg("set PORTAL_API_TOKEN (an admin access token)")
	}

	client := &apiClient{baseURL: baseURL, token: token, http: &http.Client{Timeout: 15 * time.Second}}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "create":
		if err := runCreate(ctx, client, args); err != nil {
			log.Fatal().Err(err).Msg("create user failed")
		}
	case "delete":
		if err := runDelete(ctx, client, args); err != nil {
			log.Fatal().Err(err).Msg("delete user failed")
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "userctl — portal user administration")
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  userctl create --email a@b.c --name \"Display Name\" --password secret --role technician --org org-captura [--customer cust-x] [--projects p1,p2]")
	fmt.Fprintln(os.Stderr, "  userctl delete --id usr-xyz")
	fmt.Fprintln(os.Stderr, "environment: PORTAL_API_URL (default http://localhost:8080), PORTAL_API_TOKEN")
}

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func (c *apiClient) do(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if envelope.Error != nil {
		return nil, fmt.Errorf("%s: %s", envelope.Error.Code, envelope.Error.Message)
	}
	return envelope.Data, nil
}

func runCreate(ctx context.Context, client *apiClient, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		email    = fs.String("email", "", "login email")
		name     = fs.String("name", "", "display name")
		password = fs.String("password", "", "initial password")
		roleType = fs.String("role", "", "role type (admin, technician, approver, sales_lead, customer_owner, customer_viewer, public_visitor, super_admin)")
		org      = fs.String("org", "", "org id")
		customer = fs.String("customer", "", "customer id (customer-class roles)")
		projects = fs.String("projects", "", "comma-separated project ids")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" || *password == "" || *roleType == "" || *org == "" {
		return errors.New("email, password, role and org are required")
	}

	var projectIDs []string
	for _, p := range strings.Split(*projects, ",") {
		if p = strings.TrimSpace(p); p != "" {
			projectIDs = append(projectIDs, p)
		}
	}

	payload := map[string]any{
		"email":       *email,
		"displayName": *name,
		"password":    *password,
		"profile": map[string]any{
			"roleType":           *roleType,
			"orgId":              *org,
			"customerId":         *customer,
			"assignedProjectIds": projectIDs,
		},
	}

	data, err := client.do(ctx, http.MethodPost, "/admin/users", payload)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	_ = json.Indent(&pretty, data, "", "  ")
	fmt.Println(pretty.String())
	return nil
}

func runDelete(ctx context.Context, client *apiClient, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	id := fs.String("id", "", "user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("id is required")
	}

	if _, err := client.do(ctx, http.MethodDelete, "/admin/users/"+*id, nil); err != nil {
		return err
	}
	fmt.Println("deleted", *id)
	return nil
}
