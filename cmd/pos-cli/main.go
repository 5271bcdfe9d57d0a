package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// Minimal register console for poking at a running checkout-service.

type statusView struct {
	SessionID  string `json:"session_id"`
	State      string `json:"state"`
	CustomerID string `json:"customer_id"`
	Lines      []struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		UnitPrice string `json:"unit_price"`
		Quantity  int64  `json:"quantity"`
	} `json:"lines"`
	Totals struct {
		Subtotal string `json:"subtotal"`
		Tax      string `json:"tax"`
		Total    string `json:"total"`
	} `json:"totals"`
	Attempt *struct {
		Method string `json:"method"`
		Status string `json:"status"`
	} `json:"attempt"`
	OrderID   string `json:"order_id"`
	ChangeDue string `json:"change_due"`
}

type model struct {
	baseURL string
	status  statusView
	message string
	methods []string
	method  int
	busy    bool
}

type refreshed struct {
	status  statusView
	message string
}

func initialModel(baseURL string) model {
	return model{
		baseURL: baseURL,
		methods: []string{"CASH", "CARD_MANUAL", "ACH", "TAP_TO_PAY"},
		message: "Ready",
	}
}

func (m model) Init() tea.Cmd {
	return m.call("GET", "/cart", nil)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "a":
			m.busy = true
			return m, m.call("POST", "/cart/items", map[string]any{
				"id": uuid.NewString(), "name": "Service call", "sku": "SVC-STD",
				"unit_price": "80.00", "quantity": 1,
			})
		case "c":
			m.busy = true
			return m, m.call("POST", "/cart/customer", map[string]any{"customer_id": "walk-in"})
		case "b":
			m.busy = true
			return m, m.call("POST", "/checkout", nil)
		case "p":
			m.busy = true
			return m, m.call("POST", "/checkout/collect", nil)
		case "left":
			if m.method > 0 {
				m.method--
			}
		case "right":
			if m.method < len(m.methods)-1 {
				m.method++
			}
		case "t":
			m.busy = true
			return m, m.call("POST", "/checkout/tender", map[string]any{"method": m.methods[m.method]})
		case "enter":
			m.busy = true
			fields := map[string]string{}
			if m.methods[m.method] == "CASH" {
				fields["amountTendered"] = m.status.Totals.Total
			}
			return m, m.call("POST", "/checkout/tender/submit", map[string]any{"fields": fields})
		case "x":
			m.busy = true
			return m, m.call("POST", "/checkout/cancel", nil)
		}
	case refreshed:
		m.busy = false
		m.status = msg.status
		m.message = msg.message
	}
	return m, nil
}

func (m model) View() string {
	b := &strings.Builder{}
	fmt.Fprintln(b, "fieldserve register")
	fmt.Fprintln(b, "")
	fmt.Fprintf(b, "State: %s", m.status.State)
	if m.status.CustomerID != "" {
		fmt.Fprintf(b, "  Customer: %s", m.status.CustomerID)
	}
	fmt.Fprintln(b, "")
	for _, line := range m.status.Lines {
		fmt.Fprintf(b, "  %dx %-20s %s\n", line.Quantity, line.Name, line.UnitPrice)
	}
	fmt.Fprintf(b, "Subtotal %s  Tax %s  Total %s\n",
		m.status.Totals.Subtotal, m.status.Totals.Tax, m.status.Totals.Total)
	fmt.Fprintln(b, "")
	fmt.Fprint(b, "Tender: ")
	for i, method := range m.methods {
		marker := " "
		if i == m.method {
			marker = ">"
		}
		fmt.Fprintf(b, "%s%s ", marker, method)
	}
	fmt.Fprintln(b, "")
	if m.status.Attempt != nil {
		fmt.Fprintf(b, "Attempt: %s %s\n", m.status.Attempt.Method, m.status.Attempt.Status)
	}
	if m.status.OrderID != "" {
		fmt.Fprintf(b, "Order %s", m.status.OrderID)
		if m.status.ChangeDue != "" {
			fmt.Fprintf(b, "  change due %s", m.status.ChangeDue)
		}
		fmt.Fprintln(b, "")
	}
	fmt.Fprintf(b, "\nStatus: %s\n", m.message)
	fmt.Fprintln(b, "\nKeys: a add item, c customer, b begin, p collect, left/right method, t select, enter submit, x cancel, q quit")
	return b.String()
}

func (m model) call(method, path string, body map[string]any) tea.Cmd {
	return func() tea.Msg {
		var reader io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			if err != nil {
				return refreshed{status: m.status, message: err.Error()}
			}
			reader = bytes.NewReader(raw)
		}
		req, err := http.NewRequest(method, m.baseURL+path, reader)
		if err != nil {
			return refreshed{status: m.status, message: err.Error()}
		}
		req.Header.Set("Content-Type", "application/json")

		client := &http.Client{Timeout: 10 * time.Second}
		resp, err := client.Do(req)
		if err != nil {
			return refreshed{status: m.status, message: fmt.Sprintf("request failed: %v", err)}
		}
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)

		if resp.StatusCode >= 400 {
			return refreshed{status: m.status, message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))}
		}

		status := m.status
		if err := json.Unmarshal(raw, &status); err == nil && status.State != "" {
			return refreshed{status: status, message: "OK"}
		}
		// Mutation endpoints that answer with a partial body; re-read the cart.
		fresh, err := fetchStatus(m.baseURL)
		if err != nil {
			return refreshed{status: m.status, message: err.Error()}
		}
		return refreshed{status: fresh, message: "OK"}
	}
}

func fetchStatus(baseURL string) (statusView, error) {
	resp, err := http.Get(baseURL + "/cart")
	if err != nil {
		return statusView{}, err
	}
	defer resp.Body.Close()
	var status statusView
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return statusView{}, err
	}
	return status, nil
}

func main() {
	baseURL := os.Getenv("CHECKOUT_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	p := tea.NewProgram(initialModel(baseURL))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "pos-cli: %v\n", err)
		os.Exit(1)
	}
}
