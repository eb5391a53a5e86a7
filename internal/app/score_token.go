package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

var ErrInvalidScoreToken = errors.New("invalid score token")

// ScoreClaims is the signed summary of a finished game.
type ScoreClaims struct {
	UserID    string
	Score     int
	MaxTile   int
	Moves     int
	BotMoves  int
	Algorithm string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ScoreSigner issues and checks HS256 tokens that vouch for a final score.
type ScoreSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewScoreSigner returns a signer. A non-positive ttl means one hour.
func NewScoreSigner(secret, issuer string, ttl time.Duration) *ScoreSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ScoreSigner{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Sign issues a token for c. IssuedAt and ExpiresAt are filled in by the signer.
func (s *ScoreSigner) Sign(c ScoreClaims) (string, error) {
	if s == nil {
		return "", fmt.Errorf("score signer is nil")
	}
	if len(s.secret) == 0 {
		return "", fmt.Errorf("score signer secret is empty")
	}
	if c.UserID == "" {
		return "", fmt.Errorf("user is required")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"iss":       s.issuer,
		"sub":       c.UserID,
		"game":      GameName,
		"score":     c.Score,
		"max_tile":  c.MaxTile,
		"moves":     c.Moves,
		"bot_moves": c.BotMoves,
		"algorithm": c.Algorithm,
		"iat":       now.Unix(),
		"exp":       now.Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks the signature, the signing method, the issuer and the expiry
// of tokenString and returns its claims.
func (s *ScoreSigner) Verify(tokenString string) (ScoreClaims, error) {
	if s == nil || len(s.secret) == 0 {
		return ScoreClaims{}, fmt.Errorf("score signer is not configured")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return ScoreClaims{}, fmt.Errorf("%w: %v", ErrInvalidScoreToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ScoreClaims{}, ErrInvalidScoreToken
	}
	if iss, _ := claims["iss"].(string); iss != s.issuer {
		return ScoreClaims{}, fmt.Errorf("%w: issuer %q", ErrInvalidScoreToken, iss)
	}

	out := ScoreClaims{
		UserID:    stringClaim(claims, "sub"),
		Score:     intClaim(claims, "score"),
		MaxTile:   intClaim(claims, "max_tile"),
		Moves:     intClaim(claims, "moves"),
		BotMoves:  intClaim(claims, "bot_moves"),
		Algorithm: stringClaim(claims, "algorithm"),
		IssuedAt:  time.Unix(int64(intClaim(claims, "iat")), 0),
		ExpiresAt: time.Unix(int64(intClaim(claims, "exp")), 0),
	}
	if out.UserID == "" {
		return ScoreClaims{}, fmt.Errorf("%w: missing subject", ErrInvalidScoreToken)
	}
	return out, nil
}

func stringClaim(claims jwt.MapClaims, name string) string {
	s, _ := claims[name].(string)
	return s
}

// JSON numbers decode as float64.
func intClaim(claims jwt.MapClaims, name string) int {
	f, _ := claims[name].(float64)
	return int(f)
}
