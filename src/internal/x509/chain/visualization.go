// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	x509certs "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/certs"
	x509ctx "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/context"
)

// RenderASCIITree renders the chain as a tree, leaf first.
//
// Each line carries a status icon: ✓ when the element has no error bits,
// ✗ otherwise, followed by the error names.
func (s *SimpleChain) RenderASCIITree() string {
	if len(s.Elements) == 0 {
		return "No certificates in chain"
	}

	var result strings.Builder
	for i, el := range s.Elements {
		connector := "├── "
		if i == len(s.Elements)-1 {
			connector = "└── "
		}

		statusIcon := "✓"
		if el.Status.Errors != 0 {
			statusIcon = "✗"
		}

		cert := el.Context.Cert()
		line := fmt.Sprintf("%s[%s] %s (%s)", connector, statusIcon, cert.Subject.CommonName, s.role(i))
		if el.Status.Errors != 0 {
			line += " " + el.Status.Errors.String()
		}
		result.WriteString(line + "\n")
	}
	return result.String()
}

// RenderTable renders the chain as a markdown table.
func (s *SimpleChain) RenderTable() string {
	if len(s.Elements) == 0 {
		return "No certificates to display"
	}

	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"🔢 #", "🏷️ Role", "📛 Subject", "🏢 Issuer", "📅 Valid Until", "🔐 Key", "✅ Errors", "ℹ️ Info"})

	rows := make([][]string, 0, len(s.Elements))
	for i, el := range s.Elements {
		cert := el.Context.Cert()
		_, keyDesc := keyInfo(cert)
		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			s.role(i),
			cert.Subject.CommonName,
			cert.Issuer.CommonName,
			cert.NotAfter.Format("2006-01-02"),
			keyDesc,
			el.Status.Errors.String(),
			el.Status.Info.String(),
		})
	}

	table.Bulk(rows)
	table.Render()
	return buf.String()
}

// ElementView is the JSON form of a chain element.
type ElementView struct {
	Index              int       `json:"index"`
	Role               string    `json:"role"`
	Subject            string    `json:"subject"`
	Issuer             string    `json:"issuer"`
	SerialNumber       string    `json:"serialNumber"`
	SHA1               string    `json:"sha1"`
	SignatureAlgorithm string    `json:"signatureAlgorithm"`
	PublicKeyAlgorithm string    `json:"publicKeyAlgorithm"`
	KeySize            int       `json:"keySize"`
	NotBefore          time.Time `json:"notBefore"`
	NotAfter           time.Time `json:"notAfter"`
	IsCA               bool      `json:"isCA"`
	ExtendedKeyUsage   []string  `json:"extendedKeyUsage,omitempty"`
	Errors             []string  `json:"errors,omitempty"`
	Info               []string  `json:"info,omitempty"`
}

// ChainView is the JSON form of a simple chain.
type ChainView struct {
	Quality  Quality       `json:"quality"`
	Errors   []string      `json:"errors,omitempty"`
	Info     []string      `json:"info,omitempty"`
	Elements []ElementView `json:"elements"`
}

// ContextView is the JSON form of a chain context.
type ContextView struct {
	Timestamp    string      `json:"timestamp"`
	Quality      Quality     `json:"quality"`
	Errors       []string    `json:"errors,omitempty"`
	Info         []string    `json:"info,omitempty"`
	Chains       []ChainView `json:"chains"`
	LowerQuality []ChainView `json:"lowerQuality,omitempty"`
}

// View converts the chain for structured output.
func (s *SimpleChain) View() ChainView {
	codec := x509certs.New()
	v := ChainView{
		Quality:  QualityOf(s.Status.Errors),
		Errors:   s.Status.Errors.Names(),
		Info:     s.Status.Info.Names(),
		Elements: make([]ElementView, len(s.Elements)),
	}
	for i, el := range s.Elements {
		cert := el.Context.Cert()
		algo, _ := keyInfo(cert)
		size := keySize(cert)

		var ekus []string
		if oids, err := codec.DecodeEnhancedKeyUsage(cert); err == nil {
			for _, oid := range oids {
				ekus = append(ekus, oid.String())
			}
		}

		var sha1 string
		if h, err := fingerprint(el); err == nil {
			sha1 = h
		}

		v.Elements[i] = ElementView{
			Index:              i,
			Role:               s.role(i),
			Subject:            cert.Subject.String(),
			Issuer:             cert.Issuer.String(),
			SerialNumber:       cert.SerialNumber.String(),
			SHA1:               sha1,
			SignatureAlgorithm: cert.SignatureAlgorithm.String(),
			PublicKeyAlgorithm: algo,
			KeySize:            size,
			NotBefore:          cert.NotBefore,
			NotAfter:           cert.NotAfter,
			IsCA:               cert.IsCA,
			ExtendedKeyUsage:   ekus,
			Errors:             el.Status.Errors.Names(),
			Info:               el.Status.Info.Names(),
		}
	}
	return v
}

// View converts the chain context, including any lower quality chains.
func (cc *ChainContext) View() ContextView {
	v := ContextView{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Quality:   cc.Quality(),
		Errors:    cc.Status.Errors.Names(),
		Info:      cc.Status.Info.Names(),
	}
	for _, c := range cc.Chains {
		v.Chains = append(v.Chains, c.View())
	}
	for _, alt := range cc.LowerQuality {
		for _, c := range alt.Chains {
			v.LowerQuality = append(v.LowerQuality, c.View())
		}
	}
	return v
}

// ToJSON encodes the chain context as indented JSON.
func (cc *ChainContext) ToJSON() ([]byte, error) {
	return json.MarshalIndent(cc.View(), "", "  ")
}

// role describes the position of element i.
func (s *SimpleChain) role(i int) string {
	total := len(s.Elements)
	el := s.Elements[i]
	switch {
	case total == 1 && el.Status.Info&IsSelfSigned != 0:
		return "Self-Signed Certificate"
	case i == 0:
		return "End-Entity Certificate"
	case i == total-1 && el.Status.Info&IsSelfSigned != 0:
		return "Root CA Certificate"
	case i == total-1:
		return "Last Known Issuer"
	default:
		return "Intermediate CA Certificate"
	}
}

func keyInfo(cert *x509.Certificate) (string, string) {
	switch k := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		return "RSA", fmt.Sprintf("%d-bit RSA", k.Size()*8)
	case *ecdsa.PublicKey:
		return "ECDSA", fmt.Sprintf("%d-bit ECDSA", k.Curve.Params().BitSize)
	case ed25519.PublicKey:
		return "Ed25519", "Ed25519"
	}
	return "unknown", "unknown"
}

func keySize(cert *x509.Certificate) int {
	switch k := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		return k.Size() * 8
	case *ecdsa.PublicKey:
		return k.Curve.Params().BitSize
	case ed25519.PublicKey:
		return 256
	}
	return 0
}

// fingerprint returns the hex SHA-1 of the element, computing and caching
// it as an implicit property on first use.
func fingerprint(el *Element) (string, error) {
	h, err := x509ctx.Hash(el.Context)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h), nil
}
