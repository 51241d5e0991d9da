// Package signer computes SigV4-style signatures for the single request shape
// the proxy sends: POST to "/" with an empty query string and a fixed set of
// three signed headers.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/allisson/credproxy/internal/secret"
)

const (
	// Algorithm is the signing algorithm identifier.
	Algorithm = "AWS4-HMAC-SHA256"

	// ContentType is the only body content type the proxy sends.
	ContentType = "application/json"

	// DefaultRegion and DefaultService name the credential scope when none is configured.
	DefaultRegion  = "eu-west-1"
	DefaultService = "lambda"

	// AmzDateFormat is the ISO-8601 basic timestamp used in x-amz-date.
	AmzDateFormat = "20060102T150405Z"

	// DateStampFormat is the date part of the credential scope.
	DateStampFormat = "20060102"

	scopeTerminator = "aws4_request"
)

// Header names as they appear on the wire.
const (
	HeaderHost          = "Host"
	HeaderContentType   = "Content-Type"
	HeaderAmzDate       = "X-Amz-Date"
	HeaderAuthorization = "Authorization"
)

// Input is everything needed to sign one request.
type Input struct {
	Host        string
	AccessKeyID string
	SecretKey   *secret.Buffer
	Body        []byte
	Timestamp   time.Time
}

// SignedRequest carries the header values to send along with the intermediate
// strings, which are useful when debugging signature mismatches.
type SignedRequest struct {
	Host             string
	ContentType      string
	AmzDate          string
	Authorization    string
	SignedHeaders    string
	CanonicalRequest string
	StringToSign     string
	Signature        string
}

// Signer binds a region and service to the signing routine.
type Signer struct {
	region  string
	service string
}

// New creates a Signer. Empty region or service fall back to the defaults.
func New(region, service string) *Signer {
	if region == "" {
		region = DefaultRegion
	}
	if service == "" {
		service = DefaultService
	}
	return &Signer{region: region, service: service}
}

// Region returns the configured region.
func (s *Signer) Region() string { return s.region }

// Service returns the configured service.
func (s *Signer) Service() string { return s.service }

// Sign produces the signing material for in. Output is fully determined by
// the input, including its timestamp.
func (s *Signer) Sign(in Input) SignedRequest {
	ts := in.Timestamp.UTC()
	amzDate := ts.Format(AmzDateFormat)
	dateStamp := ts.Format(DateStampFormat)

	canonicalHeaders, signedHeaders := CanonicalHeaders(map[string]string{
		HeaderHost:        in.Host,
		HeaderContentType: ContentType,
		HeaderAmzDate:     amzDate,
	})
	canonicalRequest := CanonicalRequest(canonicalHeaders, signedHeaders, in.Body)

	scope := Scope(dateStamp, s.region, s.service)
	stringToSign := StringToSign(amzDate, scope, canonicalRequest)

	signingKey := SigningKey(in.SecretKey.Bytes(), dateStamp, s.region, s.service)
	signature := Signature(signingKey, stringToSign)
	secret.Wipe(signingKey)

	return SignedRequest{
		Host:             in.Host,
		ContentType:      ContentType,
		AmzDate:          amzDate,
		Authorization:    Authorization(in.AccessKeyID, scope, signedHeaders, signature),
		SignedHeaders:    signedHeaders,
		CanonicalRequest: canonicalRequest,
		StringToSign:     stringToSign,
		Signature:        signature,
	}
}

// CanonicalHeaders lower-cases names, collapses whitespace runs in values and
// sorts by name. It returns the newline-joined header lines and the
// ';'-joined list of signed header names.
func CanonicalHeaders(headers map[string]string) (canonical, signed string) {
	names := make([]string, 0, len(headers))
	values := make(map[string]string, len(headers))
	for name, value := range headers {
		lower := strings.ToLower(strings.TrimSpace(name))
		names = append(names, lower)
		values[lower] = strings.Join(strings.Fields(value), " ")
	}
	sort.Strings(names)

	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = name + ":" + values[name]
	}

	return strings.Join(lines, "\n"), strings.Join(names, ";")
}

// CanonicalRequest builds the canonical request for POST "/" with no query.
func CanonicalRequest(canonicalHeaders, signedHeaders string, body []byte) string {
	return "POST\n/\n\n" +
		canonicalHeaders + "\n\n" +
		signedHeaders + "\n" +
		hashHex(body)
}

// Scope returns the credential scope date/region/service/aws4_request.
func Scope(dateStamp, region, service string) string {
	return dateStamp + "/" + region + "/" + service + "/" + scopeTerminator
}

// StringToSign hashes the canonical request into the string that gets signed.
func StringToSign(amzDate, scope, canonicalRequest string) string {
	return Algorithm + "\n" +
		amzDate + "\n" +
		scope + "\n" +
		hashHex([]byte(canonicalRequest))
}

// SigningKey runs the HMAC-SHA256 chain date → region → service → aws4_request.
// The caller should wipe the returned key when done.
func SigningKey(secretKey []byte, dateStamp, region, service string) []byte {
	seed := make([]byte, 0, 4+len(secretKey))
	seed = append(seed, "AWS4"...)
	seed = append(seed, secretKey...)
	defer secret.Wipe(seed)

	kDate := hmacSHA256(seed, []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	kSigning := hmacSHA256(kService, []byte(scopeTerminator))

	secret.Wipe(kDate)
	secret.Wipe(kRegion)
	secret.Wipe(kService)
	return kSigning
}

// Signature is hex(HMAC(signingKey, stringToSign)).
func Signature(signingKey []byte, stringToSign string) string {
	return hex.EncodeToString(hmacSHA256(signingKey, []byte(stringToSign)))
}

// Authorization formats the Authorization header value.
func Authorization(accessKeyID, scope, signedHeaders, signature string) string {
	return Algorithm +
		" Credential=" + accessKeyID + "/" + scope +
		", SignedHeaders=" + signedHeaders +
		", Signature=" + signature
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
