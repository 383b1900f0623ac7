// Package identity は呼び出し元の識別子 (オーナーID) を解決します。
package identity

import (
	"context"
	"errors"
)

// ErrUnauthenticated は呼び出し元を特定できない場合のエラーです。
var ErrUnauthenticated = errors.New("unauthenticated")

// Resolver はリクエストのコンテキストから呼び出し元のオーナーIDを解決します。
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

type ownerKey struct{}

// WithOwner はオーナーIDを設定したコンテキストを返します。
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFromContext はコンテキストからオーナーIDを取り出します。
func OwnerFromContext(ctx context.Context) (string, bool) {
	ownerID, ok := ctx.Value(ownerKey{}).(string)
	if !ok || ownerID == "" {
		return "", false
	}
	return ownerID, true
}

// ContextResolver は認証ミドルウェアがコンテキストに設定したオーナーIDを返します。
type ContextResolver struct{}

func (ContextResolver) Resolve(ctx context.Context) (string, error) {
	ownerID, ok := OwnerFromContext(ctx)
	if !ok {
		return "", ErrUnauthenticated
	}
	return ownerID, nil
}

// StubResolver は常に固定のオーナーIDを返します。認証なしのローカル開発用です。
type StubResolver struct {
	OwnerID string
}

func (r StubResolver) Resolve(context.Context) (string, error) {
	if r.OwnerID == "" {
		return "", ErrUnauthenticated
	}
	return r.OwnerID, nil
}
