package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the subset of a Supabase access token the scheduling services read.
type Claims struct {
	Sub   string   `json:"sub"`
	Role  string   `json:"role"`
	Aud   Audience `json:"aud,omitempty"`
	Email string   `json:"email,omitempty"`
	Exp   int64    `json:"exp"`
	Iat   int64    `json:"iat"`
}

// Audience accepts both the string and the array form of the aud claim.
type Audience []string

func (a Audience) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	return json.Marshal([]string(a))
}

func (a *Audience) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*a = Audience{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*a = many
	return nil
}

type Header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
	Kid string `json:"kid"`
}

func ParseHeader(token string) (*Header, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrInvalidToken
	}
	var header Header
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, ErrInvalidToken
	}
	return &header, nil
}

func SignHS256(claims Claims, secret string) (string, error) {
	headerJSON, err := json.Marshal(Header{Alg: "HS256", Typ: "JWT"})
	if err != nil {
		return "", err
	}
	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	unsigned := base64.RawURLEncoding.EncodeToString(headerJSON) + "." + base64.RawURLEncoding.EncodeToString(payloadJSON)
	return unsigned + "." + hmacSHA256(unsigned, secret), nil
}

// Verifier checks HS256 tokens. An empty Audience skips the aud check.
type Verifier struct {
	Secret   string
	Audience string
	// Leeway tolerates clock skew on exp.
	Leeway time.Duration

	now func() time.Time
}

func (v Verifier) Verify(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidToken
	}
	header, err := ParseHeader(token)
	if err != nil || header.Alg != "HS256" {
		return nil, ErrInvalidToken
	}
	unsigned := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(hmacSHA256(unsigned, v.Secret))) {
		return nil, ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidToken
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrInvalidToken
	}

	now := time.Now()
	if v.now != nil {
		now = v.now()
	}
	if claims.Exp > 0 && now.Add(-v.Leeway).Unix() > claims.Exp {
		return nil, ErrInvalidToken
	}
	if v.Audience != "" && !slices.Contains(claims.Aud, v.Audience) {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// ParseAndVerifyHS256 verifies signature and expiry only.
func ParseAndVerifyHS256(token, secret string) (*Claims, error) {
	return Verifier{Secret: secret}.Verify(token)
}

func hmacSHA256(data, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
