// Package present renders live streams
package present

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bcmk/procrastinate/internal/twitch"
	"github.com/k0kubun/pp"
	"gopkg.in/yaml.v3"
)

// Format represents an output format
type Format string

// Output formats
const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
	PP   Format = "pp"
)

// Formats lists all supported formats
var Formats = []Format{Text, JSON, YAML, PP}

// NobodyStreaming is printed in text format when no streams are live
const NobodyStreaming = "Currently noone is streaming :("

// ParseFormat returns the format by its name
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats {
		if string(f) == strings.ToLower(name) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q", name)
}

// Write renders streams to w
func Write(w io.Writer, format Format, streams []twitch.LiveStreamInfo) error {
	if streams == nil {
		streams = []twitch.LiveStreamInfo{}
	}
	switch format {
	case Text, "":
		return writeText(w, streams)
	case JSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "\t")
		return encoder.Encode(streams)
	case YAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(streams); err != nil {
			return err
		}
		return encoder.Close()
	case PP:
		pp.ColoringEnabled = false
		_, err := pp.Fprintln(w, streams)
		return err
	}
	return fmt.Errorf("unknown format %q", format)
}

func writeText(w io.Writer, streams []twitch.LiveStreamInfo) error {
	if len(streams) == 0 {
		_, err := fmt.Fprintln(w, NobodyStreaming)
		return err
	}
	for _, s := range streams {
		if _, err := fmt.Fprintln(w, Headline(s)); err != nil {
			return err
		}
		status := ""
		if s.Status != nil {
			status = *s.Status
		}
		if _, err := fmt.Fprintf(w, "%s\n%s\n\n", s.URL, status); err != nil {
			return err
		}
	}
	return nil
}

// Headline returns the first text line describing a stream
func Headline(s twitch.LiveStreamInfo) string {
	if s.Game != nil {
		return fmt.Sprintf("%s is playing %s with %d viewers.", s.DisplayName, *s.Game, s.Viewers)
	}
	return fmt.Sprintf("%s is doing something with %d viewers.", s.DisplayName, s.Viewers)
}
