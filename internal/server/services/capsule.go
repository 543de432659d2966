// Package services contains server-side business logic. CapsuleService owns
// the request path: listing, reading, creating and deleting capsules, with
// media disclosure gated on the capsule open date.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/cryptox"
	"github.com/dmitrijs2005/timecapsule/internal/dbx"
	"github.com/dmitrijs2005/timecapsule/internal/filex"
	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"github.com/dmitrijs2005/timecapsule/internal/server/filestore"
	"github.com/dmitrijs2005/timecapsule/internal/server/lifecycle"
	"github.com/dmitrijs2005/timecapsule/internal/server/metrics"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/repomanager"
)

// DB is what the service needs from *sql.DB.
type DB interface {
	dbx.DBTX
	dbx.TxBeginner
}

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".mp4": true, ".avi": true,
}

const deleteConcurrency = 4

// Upload is one file of a create request. Content is read more than once.
type Upload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

type CreateCapsuleInput struct {
	Title    string
	Message  string
	OpenDate time.Time
	Files    []Upload
}

type Limits struct {
	MaxFileSize int64
	MaxFiles    int
}

// CapsuleView is a capsule as seen at one instant.
type CapsuleView struct {
	*models.Capsule
	IsOpenable       bool    `json:"isOpenable"`
	SecondsUntilOpen int64   `json:"secondsUntilOpen"`
	Progress         float64 `json:"progress"`
}

func newView(c *models.Capsule, now time.Time) *CapsuleView {
	return &CapsuleView{
		Capsule:          c,
		IsOpenable:       lifecycle.IsOpenable(c, now),
		SecondsUntilOpen: int64(lifecycle.TimeUntilOpen(c, now) / time.Second),
		Progress:         lifecycle.Progress(c, now),
	}
}

type CapsuleService struct {
	db     DB
	repos  repomanager.RepositoryManager
	store  filestore.Store
	clock  lifecycle.Clock
	limits Limits
	log    logging.Logger
}

func NewCapsuleService(db DB, repos repomanager.RepositoryManager, store filestore.Store,
	clock lifecycle.Clock, limits Limits, log logging.Logger) *CapsuleService {
	return &CapsuleService{
		db:     db,
		repos:  repos,
		store:  store,
		clock:  clock,
		limits: limits,
		log:    log.With("module", "capsules"),
	}
}

// List returns the user's capsules ordered by open date.
func (s *CapsuleService) List(ctx context.Context, userID string) ([]*CapsuleView, error) {
	now := s.clock.Now()

	list, err := s.repos.Capsules(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]*CapsuleView, 0, len(list))
	for _, c := range list {
		views = append(views, newView(c, now))
	}
	return views, nil
}

func (s *CapsuleService) Get(ctx context.Context, userID, id string) (*CapsuleView, error) {
	now := s.clock.Now()
	c, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return newView(c, now), nil
}

func (s *CapsuleService) getOwned(ctx context.Context, userID, id string) (*models.Capsule, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}
	return s.repos.Capsules(s.db).GetByIDForUser(ctx, id, userID)
}

// unlocked loads the capsule and refuses with a LockedError before its open date.
func (s *CapsuleService) unlocked(ctx context.Context, userID, id string) (*models.Capsule, error) {
	now := s.clock.Now()
	c, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !lifecycle.ShouldDiscloseMedia(c, now) {
		return nil, &common.LockedError{OpenDate: c.OpenDate}
	}
	return c, nil
}

// GetMedia lists media of an openable capsule.
func (s *CapsuleService) GetMedia(ctx context.Context, userID, id string) ([]*models.Media, error) {
	c, err := s.unlocked(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.repos.Media(s.db).ListByCapsule(ctx, c.ID, userID)
}

// OpenMedia streams one media file of an openable capsule. The caller closes
// the returned reader.
func (s *CapsuleService) OpenMedia(ctx context.Context, userID, capsuleID, mediaID string) (*models.Media, io.ReadCloser, error) {
	c, err := s.unlocked(ctx, userID, capsuleID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := uuid.Parse(mediaID); err != nil {
		return nil, nil, common.ErrNotFound
	}

	m, err := s.repos.Media(s.db).GetForCapsule(ctx, mediaID, c.ID, userID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Open(ctx, m.StoragePath)
	if err != nil {
		if errors.Is(err, filestore.ErrNotExist) {
			s.log.Warn(ctx, "media file missing from store", "media_id", m.ID, "path", m.StoragePath)
			return nil, nil, common.ErrNotFound
		}
		return nil, nil, fmt.Errorf("open media: %w", err)
	}
	return m, rc, nil
}

type preparedFile struct {
	upload      Upload
	fileType    models.FileType
	contentType string
	checksum    string
	size        int64
	storedPath  string
}

func (s *CapsuleService) validate(in *CreateCapsuleInput) ([]*preparedFile, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	if in.Title == "" {
		return nil, common.NewValidationError("title", "title is required")
	}
	if in.OpenDate.IsZero() {
		return nil, common.NewValidationError("openDate", "open date is required")
	}
	if s.limits.MaxFiles > 0 && len(in.Files) > s.limits.MaxFiles {
		return nil, common.NewValidationError("files", fmt.Sprintf("at most %d files are allowed", s.limits.MaxFiles))
	}

	prepared := make([]*preparedFile, 0, len(in.Files))
	for _, u := range in.Files {
		p, err := s.inspect(u)
		if err != nil {
			return nil, err
		}
		prepared = append(prepared, p)
	}
	return prepared, nil
}

// inspect checks one upload and computes its type, size and checksum.
func (s *CapsuleService) inspect(u Upload) (*preparedFile, error) {
	if !allowedExtensions[filex.Ext(u.Filename)] {
		return nil, common.NewValidationError("files", fmt.Sprintf("%s: invalid file type", u.Filename))
	}
	if s.limits.MaxFileSize > 0 && u.Size > s.limits.MaxFileSize {
		return nil, common.NewValidationError("files", fmt.Sprintf("%s: file too large", u.Filename))
	}

	if _, err := u.Content.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind %s: %w", u.Filename, err)
	}
	mt, err := mimetype.DetectReader(u.Content)
	if err != nil {
		return nil, fmt.Errorf("detect %s: %w", u.Filename, err)
	}

	var ft models.FileType
	switch {
	case strings.HasPrefix(mt.String(), "image/"):
		ft = models.FileTypeImage
	case strings.HasPrefix(mt.String(), "video/"):
		ft = models.FileTypeVideo
	default:
		return nil, common.NewValidationError("files", fmt.Sprintf("%s: only images and videos are allowed", u.Filename))
	}

	if _, err := u.Content.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind %s: %w", u.Filename, err)
	}
	var r io.Reader = u.Content
	if s.limits.MaxFileSize > 0 {
		r = io.LimitReader(u.Content, s.limits.MaxFileSize+1)
	}
	sum, n, err := cryptox.Checksum(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u.Filename, err)
	}
	if s.limits.MaxFileSize > 0 && n > s.limits.MaxFileSize {
		return nil, common.NewValidationError("files", fmt.Sprintf("%s: file too large", u.Filename))
	}

	return &preparedFile{
		upload:      u,
		fileType:    ft,
		contentType: mt.String(),
		checksum:    sum,
		size:        n,
	}, nil
}

// Create validates the input, stores every file, then records the capsule
// and its media in one transaction. Files already written are removed when
// any later step fails.
func (s *CapsuleService) Create(ctx context.Context, userID string, in CreateCapsuleInput) (*CapsuleView, error) {
	files, err := s.validate(&in)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	c := &models.Capsule{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      in.Title,
		Message:    in.Message,
		OpenDate:   in.OpenDate.UTC(),
		HasMessage: in.Message != "",
	}
	for _, f := range files {
		switch f.fileType {
		case models.FileTypeImage:
			c.HasImages = true
		case models.FileTypeVideo:
			c.HasVideos = true
		}
	}

	if err := s.writeFiles(ctx, files); err != nil {
		s.cleanup(ctx, files)
		return nil, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repos.Capsules(tx).Create(ctx, c); err != nil {
			return fmt.Errorf("create capsule: %w", err)
		}
		mediaRepo := s.repos.Media(tx)
		for _, f := range files {
			m := &models.Media{
				ID:           uuid.NewString(),
				CapsuleID:    c.ID,
				UserID:       userID,
				OriginalName: f.upload.Filename,
				StoredName:   storedName(f.storedPath),
				FileType:     f.fileType,
				StoragePath:  f.storedPath,
				ContentType:  f.contentType,
				Size:         f.size,
				Checksum:     f.checksum,
			}
			if _, err := mediaRepo.Create(ctx, m); err != nil {
				return fmt.Errorf("create media: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.cleanup(ctx, files)
		return nil, err
	}

	for _, f := range files {
		metrics.UploadsTotal.WithLabelValues(string(f.fileType)).Inc()
	}
	s.log.Info(ctx, "capsule created", "capsule_id", c.ID, "user_id", userID, "files", len(files))
	return newView(c, now), nil
}

func storedName(storedPath string) string {
	if i := strings.LastIndex(storedPath, "/"); i >= 0 {
		return storedPath[i+1:]
	}
	return storedPath
}

func (s *CapsuleService) writeFiles(ctx context.Context, files []*preparedFile) error {
	for _, f := range files {
		if _, err := f.upload.Content.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind %s: %w", f.upload.Filename, err)
		}
		sp, err := s.store.Write(ctx, f.upload.Content, f.upload.Filename)
		if err != nil {
			return fmt.Errorf("store %s: %w", f.upload.Filename, err)
		}
		f.storedPath = sp
	}
	return nil
}

// cleanup removes files written for a failed create. Failures are only logged.
func (s *CapsuleService) cleanup(ctx context.Context, files []*preparedFile) {
	for _, f := range files {
		if f.storedPath == "" {
			continue
		}
		if err := s.store.Delete(context.WithoutCancel(ctx), f.storedPath); err != nil {
			s.log.Error(ctx, "error deleting file", "path", f.storedPath, "error", err)
		}
	}
}

// Delete removes a capsule, its stored files and its media rows. A file that
// cannot be removed is logged and does not stop the deletion.
func (s *CapsuleService) Delete(ctx context.Context, userID, id string) error {
	c, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	media, err := s.repos.Media(s.db).ListByCapsule(ctx, c.ID, userID)
	if err != nil {
		return err
	}

	// Once files start going, the rows must follow even if the caller leaves.
	ctx = context.WithoutCancel(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)
	for _, m := range media {
		g.Go(func() error {
			if err := s.store.Delete(gctx, m.StoragePath); err != nil {
				s.log.Warn(gctx, "error deleting file", "media_id", m.ID, "path", m.StoragePath, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repos.Media(tx).DeleteByCapsule(ctx, c.ID, userID); err != nil {
			return err
		}
		return s.repos.Capsules(tx).DeleteForUser(ctx, c.ID, userID)
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "capsule deleted", "capsule_id", c.ID, "user_id", userID, "files", len(media))
	return nil
}
