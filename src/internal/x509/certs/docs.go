// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509certs provides specialized encoding and decoding operations for [X.509] certificates
// and their keys. It supports multiple formats including [PEM], DER, [PKCS7] and [PKCS8]
// (plain and encrypted), and is used by the keybox parser, the trust anchor store
// and the chain validator to turn text blocks into certificates and keys.
//
// [X.509]: https://grokipedia.com/page/X.509
// [PKCS7]: https://grokipedia.com/page/PKCS_7
// [PKCS8]: https://grokipedia.com/page/PKCS_8
// [PEM]: https://grokipedia.com/page/PEM#privacy-enhanced-mail
package x509certs
