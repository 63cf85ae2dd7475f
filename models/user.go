// Package models — User ve ilişkili yardımcı modeller.
//
// Kullanıcı CRUD'u bu core'un işi değildir — profil yönetimi, kayıt ve
// token üretimi dış servislerde yaşar. Burada sadece gerçek zamanlı
// katmanın ihtiyaç duyduğu dar görünüm tutulur: kimlik, görünen isim,
// aktiflik ve blok ilişkisi.
package models

import "time"

// User, gerçek zamanlı katmanın gördüğü kadarıyla bir kullanıcı.
type User struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserBlock, bir kullanıcının diğerini engellemesini temsil eder.
// Blok tek yönlü kaydedilir ama mesajlaşma iki yönde de kesilir:
// engelleyen de engellenen de karşı tarafa mesaj gönderemez.
type UserBlock struct {
	ID        string    `json:"id"`
	BlockerID string    `json:"blocker_id"`
	BlockedID string    `json:"blocked_id"`
	HideOnly  bool      `json:"hide_only"` // true = sadece keşiften gizle, mesajlaşmayı kesme
	CreatedAt time.Time `json:"created_at"`
}

// Media, bir kullanıcının yüklediği medya kaydı.
// Upload/transcoding dış servistir; core sadece media_id → URL çözer.
type Media struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"` // "image" | "audio" | "video"
	FilePath  string    `json:"file_path"`
	CreatedAt time.Time `json:"created_at"`
}
