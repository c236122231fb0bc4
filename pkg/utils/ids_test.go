package utils

import (
	"regexp"
	"testing"
)

var ticketNumberPattern = regexp.MustCompile(`^CIV-\d{8}-[0-9A-F]{8}$`)

func TestNewTicketNumber(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tn := NewTicketNumber()
		if !ticketNumberPattern.MatchString(tn) {
			t.Fatalf("unexpected ticket format: %q", tn)
		}
		if seen[tn] {
			t.Fatalf("duplicate ticket number: %q", tn)
		}
		seen[tn] = true
	}
}

func TestNewConnIDDistinct(t *testing.T) {
	if NewConnID() == NewConnID() {
		t.Fatalf("connection ids must be unique")
	}
}
