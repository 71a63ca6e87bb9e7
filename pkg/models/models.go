package models

import (
	"time"
)

type User struct {
	ID          int    `json:"id" gorm:"primaryKey;autoIncrement"`
	ExternalID  string `json:"externalId" gorm:"column:external_id;unique"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

type Playlist struct {
	ID        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int       `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type PlaylistTrack struct {
	ID         int    `json:"id" gorm:"primaryKey;autoIncrement"`
	PlaylistID int    `json:"playlistId"`
	VideoID    string `json:"videoId"`
	Title      string `json:"title"`
	Thumbnail  string `json:"thumbnail"`
	Position   int    `json:"position"`
}

type LikedSong struct {
	ID        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int       `json:"userId"`
	VideoID   string    `json:"videoId"`
	Title     string    `json:"title"`
	Thumbnail string    `json:"thumbnail"`
	CreatedAt time.Time `json:"createdAt"`
}
