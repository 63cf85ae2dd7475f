package repository

import (
	"context"

	"github.com/eylulcan/amora/models"
)

// UserRepository, kullanıcı okuma işlemleri için interface.
//
// Kullanıcı yaşam döngüsü (kayıt, profil, silme) bu servisin dışında
// yönetilir — burada yalnızca gerçek zamanlı katmanın ihtiyaç duyduğu
// okumalar var.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// BlockRepository, kullanıcı blok sorguları için interface.
type BlockRepository interface {
	// IsBlockedEither, iki kullanıcıdan HERHANGİ biri diğerini
	// blokladıysa true döner. Mesajlaşma iki yönde de kapanır.
	IsBlockedEither(ctx context.Context, userA, userB string) (bool, error)
}

// MediaRepository, mesajlara eklenen media kayıtları için interface.
type MediaRepository interface {
	GetByID(ctx context.Context, id string) (*models.Media, error)
}
