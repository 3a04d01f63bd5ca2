package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, method jwt.SigningMethod) string {
	t.Helper()
	token := jwt.NewWithClaims(method, &Claims{
		OperatorID: "op-1",
		CameraCode: "CAM-A",
		Role:       "operator",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestParserParse(t *testing.T) {
	parser := NewParser("test-secret")

	claims, err := parser.Parse(signToken(t, "test-secret", jwt.SigningMethodHS256))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.OperatorID != "op-1" || claims.CameraCode != "CAM-A" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParserRejectsWrongSecret(t *testing.T) {
	parser := NewParser("test-secret")
	if _, err := parser.Parse(signToken(t, "other-secret", jwt.SigningMethodHS256)); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse with wrong secret = %v, want ErrInvalidToken", err)
	}
}

func TestParserRejectsGarbage(t *testing.T) {
	parser := NewParser("test-secret")
	if _, err := parser.Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse garbage = %v, want ErrInvalidToken", err)
	}
}
