package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/music-streaming-system/internal/library"
	"github.com/music-streaming-system/pkg/models"
)

type MySQLDB struct {
	*gorm.DB
}

func NewMySQLDB(host, port, user, password, dbname string) (*MySQLDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &MySQLDB{DB: db}, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Playlist{},
		&models.PlaylistTrack{},
		&models.LikedSong{},
	)
}

// User operations

func (db *MySQLDB) GetUser(id int) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &user, nil
}

func (db *MySQLDB) GetUserByExternalID(externalID string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "external_id = ?", externalID).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &user, nil
}

func (db *MySQLDB) UpsertUserByExternalID(externalID, displayName, email string) (*models.User, error) {
	user, err := db.GetUserByExternalID(externalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, library.ErrNotFound) {
		return nil, err
	}

	created := &models.User{
		ExternalID:  externalID,
		DisplayName: displayName,
		Email:       email,
	}
	if err := db.Create(created).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

// Playlist operations

func (db *MySQLDB) GetPlaylists(userID int) ([]*models.Playlist, error) {
	playlists := []*models.Playlist{}
	if err := db.Where("user_id = ?", userID).
		Order("id ASC").
		Find(&playlists).Error; err != nil {
		return nil, err
	}
	return playlists, nil
}

func (db *MySQLDB) GetPlaylist(id int) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := db.First(&playlist, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &playlist, nil
}

func (db *MySQLDB) CreatePlaylist(userID int, name string) (*models.Playlist, error) {
	playlist := &models.Playlist{
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := db.Create(playlist).Error; err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	return playlist, nil
}

// DeletePlaylist removes the playlist and all of its tracks in one transaction.
func (db *MySQLDB) DeletePlaylist(id int) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", id).Delete(&models.PlaylistTrack{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Playlist{}, "id = ?", id).Error
	})
}

// Playlist track operations

func (db *MySQLDB) GetPlaylistTracks(playlistID int) ([]*models.PlaylistTrack, error) {
	tracks := []*models.PlaylistTrack{}
	if err := db.Where("playlist_id = ?", playlistID).
		Order("position ASC").
		Find(&tracks).Error; err != nil {
		return nil, err
	}
	return tracks, nil
}

func (db *MySQLDB) AddPlaylistTrack(playlistID int, videoID, title, thumbnail string, position int) (*models.PlaylistTrack, error) {
	track := &models.PlaylistTrack{
		PlaylistID: playlistID,
		VideoID:    videoID,
		Title:      title,
		Thumbnail:  thumbnail,
		Position:   position,
	}
	if err := db.Create(track).Error; err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}
	return track, nil
}

func (db *MySQLDB) RemovePlaylistTrack(id int) error {
	return db.Delete(&models.PlaylistTrack{}, "id = ?", id).Error
}

func (db *MySQLDB) UpdateTrackPosition(id int, position int) error {
	return db.Model(&models.PlaylistTrack{}).
		Where("id = ?", id).
		Update("position", position).Error
}

// Liked song operations

func (db *MySQLDB) GetLikedSongs(userID int) ([]*models.LikedSong, error) {
	songs := []*models.LikedSong{}
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&songs).Error; err != nil {
		return nil, err
	}
	return songs, nil
}

func (db *MySQLDB) AddLikedSong(userID int, videoID, title, thumbnail string) (*models.LikedSong, error) {
	var existing models.LikedSong
	result := db.Where("user_id = ? AND video_id = ?", userID, videoID).First(&existing)
	if result.Error == nil {
		return &existing, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	song := &models.LikedSong{
		UserID:    userID,
		VideoID:   videoID,
		Title:     title,
		Thumbnail: thumbnail,
		CreatedAt: time.Now(),
	}
	if err := db.Create(song).Error; err != nil {
		return nil, fmt.Errorf("failed to add liked song: %w", err)
	}
	return song, nil
}

func (db *MySQLDB) RemoveLikedSong(userID int, videoID string) error {
	return db.Where("user_id = ? AND video_id = ?", userID, videoID).
		Delete(&models.LikedSong{}).Error
}

func (db *MySQLDB) IsLikedSong(userID int, videoID string) (bool, error) {
	var count int64
	if err := db.Model(&models.LikedSong{}).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return library.ErrNotFound
	}
	return err
}
