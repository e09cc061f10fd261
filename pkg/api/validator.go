package api

import (
	"errors"
	"math"
)

var (
	ErrMissingField       = errors.New("missing required field")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidValue       = errors.New("invalid value")
)

// Validator - интерфейс, который могут реализовать DTO
type Validator interface {
	Validate() error
}

func (p AuthPayload) Validate() error {
	if p.Username == "" || p.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

func (p InitPayload) Validate() error { return nil }

func (p MovePayload) Validate() error {
	if p.X == nil || p.Y == nil {
		return ErrMissingField
	}
	if math.IsNaN(*p.X) || math.IsNaN(*p.Y) || math.IsInf(*p.X, 0) || math.IsInf(*p.Y, 0) {
		return ErrInvalidValue
	}
	return nil
}

func (p SkillPayload) Validate() error { return nil }

// Validate для чата пропускает любой текст: длину ограничивает размер кадра
func (p ChatPayload) Validate() error { return nil }

func (p EmptyPayload) Validate() error { return nil }
