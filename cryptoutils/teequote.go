// Package cryptoutils holds the cryptographic helpers of the trust registry.
//
// The registry treats attestation payloads as opaque by default; the only
// inspection it ever performs is the optional structural validation of TDX
// quotes attached to infra-tee attestations, implemented here on top of the
// go-tdx-guest ABI. Full quote verification against Intel collateral is an
// upstream concern of the attestation producers, not of the registry.
package cryptoutils

import (
	"errors"
	"fmt"

	tdx_abi "github.com/google/go-tdx-guest/abi"
	tdx_pb "github.com/google/go-tdx-guest/proto/tdx"
)

// ValidateTDXQuote checks that raw parses as a TDX v4 quote. It performs no
// signature or collateral verification.
func ValidateTDXQuote(raw []byte) error {
	if len(raw) == 0 {
		return errors.New("empty tee quote")
	}

	protoQuote, err := tdx_abi.QuoteToProto(raw)
	if err != nil {
		return fmt.Errorf("could not parse quote: %w", err)
	}

	switch q := protoQuote.(type) {
	case *tdx_pb.QuoteV4:
		if q.TdQuoteBody == nil {
			return errors.New("quote missing TD quote body")
		}
		return nil
	default:
		return fmt.Errorf("unsupported quote type: %T", q)
	}
}
