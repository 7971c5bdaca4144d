// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package keybox extracts certificate chain materials from Android attestation
// keybox XML documents using [etree].
//
// A keybox looks like this:
//
//	<AndroidAttestation>
//	  <NumberOfKeyboxes>1</NumberOfKeyboxes>
//	  <Keybox DeviceID="...">
//	    <Key algorithm="ecdsa">
//	      <PrivateKey format="pem">...</PrivateKey>
//	      <CertificateChain>
//	        <NumberOfCertificates>3</NumberOfCertificates>
//	        <Certificate format="pem">...</Certificate>
//	        ...
//	      </CertificateChain>
//	    </Key>
//	  </Keybox>
//	</AndroidAttestation>
//
// Only text extraction happens here; certificates and keys are decoded by
// the validator. The package also holds the upload admission gate shared by
// every front-end.
//
// [etree]: https://github.com/beevik/etree
package keybox
