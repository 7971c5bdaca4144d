// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"bytes"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"strings"
)

// namesEqual compares two DER encoded X.509 names attribute by attribute.
// The RDN sequence is order sensitive; attributes inside one multi-valued RDN
// are compared as a set. Names that fail to decode never compare equal.
func namesEqual(a, b []byte) bool {
	if bytes.Equal(a, b) {
		return len(a) > 0
	}

	ra, ok := decodeName(a)
	if !ok {
		return false
	}
	rb, ok := decodeName(b)
	if !ok {
		return false
	}

	if len(ra) != len(rb) {
		return false
	}
	for i := range ra {
		if !rdnEqual(ra[i], rb[i]) {
			return false
		}
	}
	return true
}

func decodeName(der []byte) (pkix.RDNSequence, bool) {
	var seq pkix.RDNSequence
	rest, err := asn1.Unmarshal(der, &seq)
	if err != nil || len(rest) != 0 {
		return nil, false
	}
	return seq, true
}

func rdnEqual(a, b pkix.RelativeDistinguishedNameSET) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
outer:
	for _, av := range a {
		for j, bv := range b {
			if !used[j] && av.Type.Equal(bv.Type) && attrValueEqual(av.Value, bv.Value) {
				used[j] = true
				continue outer
			}
		}
		return false
	}
	return true
}

func attrValueEqual(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// FormatName renders a DER encoded name as comma separated oid-name=value
// pairs in encoding order, e.g. "CN=Android Keystore Key, O=Google".
func FormatName(der []byte) string {
	seq, ok := decodeName(der)
	if !ok {
		return ""
	}

	var parts []string
	for _, rdn := range seq {
		for _, atv := range rdn {
			parts = append(parts, fmt.Sprintf("%s=%v", attributeName(atv.Type), atv.Value))
		}
	}
	return strings.Join(parts, ", ")
}

var attributeNames = map[string]string{
	"2.5.4.3":                    "CN",
	"2.5.4.5":                    "serialNumber",
	"2.5.4.6":                    "C",
	"2.5.4.7":                    "L",
	"2.5.4.8":                    "ST",
	"2.5.4.10":                   "O",
	"2.5.4.11":                   "OU",
	"2.5.4.12":                   "title",
	"1.2.840.113549.1.9.1":       "emailAddress",
	"0.9.2342.19200300.100.1.25": "DC",
}

func attributeName(oid asn1.ObjectIdentifier) string {
	if name, ok := attributeNames[oid.String()]; ok {
		return name
	}
	return oid.String()
}
