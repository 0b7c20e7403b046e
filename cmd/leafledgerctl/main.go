// Command leafledgerctl submits a batch file to a running leafledgerd and
// prints the result.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sethgrid/pester"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "leafledgerctl",
		Usage: "submit a batch to a leafledgerd daemon and print the result",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "http://127.0.0.1:8337", Usage: "daemon base URL"},
			&cli.StringFlag{Name: "macaroon", Usage: "hex-encoded admin macaroon", Required: true},
			&cli.BoolFlag{Name: "verbose", Usage: "dump the raw response with go-spew"},
		},
		Commands: []*cli.Command{
			{
				Name:      "submit",
				Usage:     "submit a batch file (one hex-encoded signed transaction per line)",
				ArgsUsage: "<batch-file>",
				Action:    submitAction,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type batchRequest struct {
	Transactions []string `json:"transactions"`
}

type batchResult struct {
	ID      string `json:"id"`
	Error   string `json:"error,omitempty"`
	Version uint64 `json:"version,omitempty"`
}

func submitAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("expected exactly one batch file argument", 1)
	}
	raw, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}

	req := batchRequest{}
	for _, line := range splitNonEmptyLines(raw) {
		req.Transactions = append(req.Transactions, line)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	client := pester.New()
	client.MaxRetries = 3
	client.Backoff = pester.ExponentialBackoff
	client.Timeout = 30 * time.Second

	httpReq, err := http.NewRequest(http.MethodPost, c.String("addr")+"/batches", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Macaroon", c.String("macaroon"))

	resp, err := client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if c.Bool("verbose") {
		spew.Dump(respBody)
	}

	var result batchResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Batch ID", "Version", "Error"})
	t.AppendRow(table.Row{result.ID, result.Version, result.Error})
	t.Render()

	if result.Error != "" {
		return cli.Exit("batch failed", 1)
	}
	return nil
}

func splitNonEmptyLines(raw []byte) []string {
	var lines []string
	start := 0
	for i, b := range raw {
		if b == '\n' {
			if line := trimCR(raw[start:i]); len(line) > 0 {
				lines = append(lines, string(line))
			}
			start = i + 1
		}
	}
	if line := trimCR(raw[start:]); len(line) > 0 {
		lines = append(lines, string(line))
	}
	return lines
}

func trimCR(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		return b[:len(b)-1]
	}
	return b
}
