package status

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

type fakeSource struct {
	state    string
	messages int
	online   int
}

func (s *fakeSource) ConnState() string { return s.state }
func (s *fakeSource) MessageCount() int { return s.messages }
func (s *fakeSource) OnlineCount() int  { return s.online }

func TestHealthz(t *testing.T) {
	s := New(":0", &fakeSource{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected ok, got %v", body)
	}
}

func TestStatusReportsSource(t *testing.T) {
	s := New(":0", &fakeSource{state: "connected", messages: 42, online: 3})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer resp.Body.Close()

	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Connection != "connected" || report.Messages != 42 || report.Online != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}
}
