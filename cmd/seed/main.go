// Command seed populates a running server with demo customers, accounts and
// movements. Useful for manual poking at a fresh instance.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
)

type customer struct {
	Name                 string `json:"name"`
	Address              string `json:"address"`
	IdentificationNumber string `json:"identification_number"`
	ID                   int64  `json:"id,omitempty"`
}

type account struct {
	Customer      int64   `json:"customer"`
	Type          string  `json:"type"`
	DepositAmount float64 `json:"deposit_amount"`
	ID            int64   `json:"id,omitempty"`
}

var demoCustomers = []customer{
	{Name: "Sarah Johnson", Address: "12 Elm Street", IdentificationNumber: "12345678901"},
	{Name: "Michael Garcia", Address: "9 Oak Avenue", IdentificationNumber: "12345678902"},
	{Name: "Emily Rodriguez", Address: "3 Pine Road", IdentificationNumber: "12345678903"},
	{Name: "David Lee", Address: "27 Maple Court", IdentificationNumber: "12345678904"},
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the server to seed")
	flag.Parse()

	if err := run(*baseURL); err != nil {
		fmt.Fprintln(os.Stderr, "seed failed:", err)
		os.Exit(1)
	}
}

func run(baseURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}

	accountIDs := make([]int64, len(demoCustomers))
	g, gctx := errgroup.WithContext(ctx)
	for i := range demoCustomers {
		i := i
		g.Go(func() error {
			var created customer
			if err := post(gctx, client, baseURL+"/customer", demoCustomers[i], &created); err != nil {
				return fmt.Errorf("create customer %q: %w", demoCustomers[i].Name, err)
			}

			var opened account
			req := account{Customer: created.ID, Type: "checking", DepositAmount: 500}
			if err := post(gctx, client, baseURL+"/account/create", req, &opened); err != nil {
				return fmt.Errorf("open account for %q: %w", created.Name, err)
			}
			accountIDs[i] = opened.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// A few movements so list endpoints have something to show.
	for i, from := range accountIDs {
		to := accountIDs[(i+1)%len(accountIDs)]
		transfer := map[string]any{"transfer_from": from, "transfer_to": to, "amount": 25 + 10*i}
		if err := post(ctx, client, baseURL+"/transfer", transfer, nil); err != nil {
			return fmt.Errorf("transfer %d -> %d: %w", from, to, err)
		}
	}
	deposit := map[string]any{"account": accountIDs[0], "amount": 75}
	if err := post(ctx, client, baseURL+"/deposit", deposit, nil); err != nil {
		return err
	}
	withdraw := map[string]any{"account": accountIDs[1], "amount": 40}
	if err := post(ctx, client, baseURL+"/withdraw", withdraw, nil); err != nil {
		return err
	}

	fmt.Printf("seeded %d customers with accounts %v\n", len(demoCustomers), accountIDs)
	return nil
}

func post(ctx context.Context, client *http.Client, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var envelope struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		return fmt.Errorf("%s returned %d: %s %s", url, resp.StatusCode, envelope.Error, envelope.ErrorDescription)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
