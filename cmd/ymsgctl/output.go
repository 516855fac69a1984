package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/Zereker/ymsg"
)

// packetView is the printable form of a packet.
type packetView struct {
	Version   int16       `json:"version" yaml:"version"`
	VendorID  int16       `json:"vendor_id" yaml:"vendor_id"`
	Service   int16       `json:"service" yaml:"service"`
	Size      uint16      `json:"size" yaml:"size"`
	Status    int32       `json:"status" yaml:"status"`
	SessionID int32       `json:"session_id" yaml:"session_id"`
	Payload   []entryView `json:"payload" yaml:"payload"`
}

type entryView struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

func newPacketView(p *ymsg.Packet) packetView {
	v := packetView{
		Version:   p.Version,
		VendorID:  p.VendorID,
		Service:   int16(p.Service),
		Size:      p.Size,
		Status:    p.Status,
		SessionID: p.SessionID,
		Payload:   make([]entryView, 0, len(p.Payload)),
	}
	for _, e := range p.Payload {
		v.Payload = append(v.Payload, entryView{Key: e.Key, Value: e.Value})
	}
	return v
}

// Formatter renders a packet for the terminal.
type Formatter interface {
	Format(p *ymsg.Packet) string
}

// NewFormatter returns a Formatter for the given format string.
// Supported formats: "table" (default), "json", "yaml".
func NewFormatter(format string) Formatter {
	switch strings.ToLower(format) {
	case "json":
		return &JSONFormatter{}
	case "yaml":
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// TableFormatter prints the header on one line and the payload as aligned
// key/value rows.
type TableFormatter struct{}

func (f *TableFormatter) Format(p *ymsg.Packet) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "service=%d status=%d session=%d version=%d vendor=%#x size=%d\n",
		p.Service, p.Status, p.SessionID, p.Version, p.VendorID, p.Size)

	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	for _, e := range p.Payload {
		fmt.Fprintf(w, "  %s\t%s\n", e.Key, e.Value)
	}
	w.Flush()
	return buf.String()
}

// JSONFormatter formats packets as indented JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(p *ymsg.Packet) string {
	b, err := json.MarshalIndent(newPacketView(p), "", "  ")
	if err != nil {
		return fmt.Sprintf("error formatting JSON: %v\n", err)
	}
	return string(b) + "\n"
}

// YAMLFormatter formats packets as YAML documents.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(p *ymsg.Packet) string {
	b, err := yaml.Marshal(newPacketView(p))
	if err != nil {
		return fmt.Sprintf("error formatting YAML: %v\n", err)
	}
	return "---\n" + string(b)
}
