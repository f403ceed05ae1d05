package task

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v2"
)

// ScriptHeader is the YAML metadata block at the top of a script task,
// written as comment lines after a "config" marker:
//
//	#!/bin/sh
//	# config
//	# name: lint
//	# deps: [fmt]
//	# env:
//	#   GOFLAGS: -mod=mod
type ScriptHeader struct {
	Name      string            `yaml:"name"`
	Module    string            `yaml:"module"`
	Deps      []string          `yaml:"deps"`
	Env       map[string]string `yaml:"env"`
	Dir       string            `yaml:"dir"`
	Toolchain string            `yaml:"toolchain"`
	Shell     string            `yaml:"shell"`
}

// HeaderParser extracts ScriptHeader blocks from comment lines.
type HeaderParser struct {
	prefixes []commentPrefix
}

type commentPrefix struct {
	start *regexp.Regexp
	line  *regexp.Regexp
	strip *regexp.Regexp
}

// DefaultCommentPrefixes are the comment markers understood by
// NewHeaderParser when none are given.
var DefaultCommentPrefixes = []string{"#"}

// NewHeaderParser returns a parser for the given single line comment
// markers. A repeated marker ("##") is accepted wherever the single one is.
func NewHeaderParser(prefixes ...string) *HeaderParser {
	if len(prefixes) == 0 {
		prefixes = DefaultCommentPrefixes
	}

	p := &HeaderParser{}
	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}
		marker := commentRegexFor(prefix)
		p.prefixes = append(p.prefixes, commentPrefix{
			start: regexp.MustCompile(marker + `\s*config\s*$`),
			line:  regexp.MustCompile(marker),
			strip: regexp.MustCompile(marker + `\s?`),
		})
	}
	return p
}

// Parse returns the header and the script that follows it. Content
// without a header yields a zero ScriptHeader and the full content.
func (p *HeaderParser) Parse(content []byte) (ScriptHeader, string, error) {
	lines := bytes.Split(content, []byte("\n"))

	for i, line := range lines {
		for _, prefix := range p.prefixes {
			if !prefix.start.Match(line) {
				continue
			}

			end := len(lines)
			for j := i + 1; j < len(lines); j++ {
				if !prefix.line.Match(lines[j]) {
					end = j
					break
				}
			}

			metadata := make([][]byte, 0, end-i-1)
			for _, l := range lines[i+1 : end] {
				metadata = append(metadata, prefix.strip.ReplaceAll(l, nil))
			}

			var header ScriptHeader
			err := yaml.Unmarshal(bytes.Join(metadata, []byte("\n")), &header)
			return header, string(bytes.Join(lines[end:], []byte("\n"))), err
		}
	}

	return ScriptHeader{}, string(content), nil
}

// commentRegexFor returns a pattern matching prefix at line start. A
// prefix made of a single repeated character matches any longer run.
func commentRegexFor(prefix string) string {
	if strings.Count(prefix, prefix[:1]) == len(prefix) {
		return "^" + regexp.QuoteMeta(prefix) + regexp.QuoteMeta(prefix[:1]) + "*"
	}
	return "^" + regexp.QuoteMeta(prefix)
}
