// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Go'da error'lar basit değerlerdir. errors.New() ile sabit error
// değişkenleri tanımlarız; karşılaştırma string yerine referans ile yapılır:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
//
// Service katmanı bu sentinel'leri fmt.Errorf("%w: detay", ...) ile
// sararak döner; handler katmanı errors.Is ile yakalayıp HTTP status'a
// veya WS error frame'ine çevirir.
package pkg

import "errors"

// Domain-level error'lar.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")

	// ErrBlocked: iki kullanıcı arasında blok var — mesaj reddedilir.
	ErrBlocked = errors.New("blocked")

	// ErrRateLimited: mesaj spam limiti aşıldı.
	ErrRateLimited = errors.New("rate limited")

	ErrInternal = errors.New("internal error")
)
