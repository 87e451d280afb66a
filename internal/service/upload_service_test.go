package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"pixvault/internal/auth"
	apperrors "pixvault/internal/errors"
	"pixvault/internal/model"
	"pixvault/internal/repository"
)

// MockUploadRepository is a mock implementation of UploadRepository.
type MockUploadRepository struct {
	mock.Mock
}

func (m *MockUploadRepository) Create(ctx context.Context, upload *model.Upload) error {
	args := m.Called(ctx, upload)
	return args.Error(0)
}

func (m *MockUploadRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Upload, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Upload), args.Error(1)
}

func (m *MockUploadRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Upload, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Upload), args.Error(1)
}

func (m *MockUploadRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUploadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUploadRepository) Stats(ctx context.Context) (*repository.UploadStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.UploadStats), args.Error(1)
}

func (m *MockUploadRepository) CountByDateRange(ctx context.Context, start, end time.Time) ([]repository.DateBucket, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.DateBucket), args.Error(1)
}

// fakeStore is an in-memory object store that counts calls.
type fakeStore struct {
	objects      map[string][]byte
	contentTypes map[string]string
	putCalls     int
	deleteCalls  int
	presignCalls int
	failPut      bool
	failDelete   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

func (f *fakeStore) Put(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) (string, error) {
	f.putCalls++
	if f.failPut {
		return "", errors.New("store unavailable")
	}
	f.objects[key] = body
	f.contentTypes[key] = contentType
	return "https://store.test/" + key, nil
}

func (f *fakeStore) Delete(ctx context.Context, keys ...string) error {
	f.deleteCalls++
	if f.failDelete {
		return errors.New("store unavailable")
	}
	for _, key := range keys {
		delete(f.objects, key)
	}
	return nil
}

func (f *fakeStore) PresignGet(ctx context.Context, key, downloadName string, expires time.Duration) (string, error) {
	f.presignCalls++
	return "https://store.test/" + key + "?signed=1", nil
}

func (f *fakeStore) Bucket() string {
	return "test-bucket"
}

func owner() auth.Identity {
	return auth.Identity{ID: uuid.New(), Email: "ann@x.com", Role: model.RoleUser}
}

func pngPayload(name string, size int) FilePayload {
	return FilePayload{
		OriginalFilename: name,
		MimeType:         "image/png",
		Size:             int64(size),
		Content:          make([]byte, size),
	}
}

func TestUploadService_Upload_Validation(t *testing.T) {
	tests := []struct {
		name          string
		file          FilePayload
		expectedError error
	}{
		{
			name: "rejects non-PNG mime type",
			file: FilePayload{
				OriginalFilename: "pic.jpg",
				MimeType:         "image/jpeg",
				Size:             2048,
				Content:          make([]byte, 2048),
			},
			expectedError: apperrors.ErrInvalidFileType,
		},
		{
			name:          "rejects oversize file",
			file:          pngPayload("big.png", 11*1024*1024),
			expectedError: apperrors.ErrFileTooLarge,
		},
		{
			name: "rejects empty payload",
			file: FilePayload{
				OriginalFilename: "pic.png",
				MimeType:         "image/png",
			},
			expectedError: apperrors.ErrNoFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUploadRepository)
			store := newFakeStore()
			svc := NewUploadService(mockRepo, store, nil, 10*1024*1024)

			upload, err := svc.Upload(context.Background(), owner(), tt.file, RequestMeta{})

			assert.ErrorIs(t, err, tt.expectedError)
			assert.Nil(t, upload)
			// validation failures must cause zero side effects
			assert.Equal(t, 0, store.putCalls)
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestUploadService_Upload_Success(t *testing.T) {
	mockRepo := new(MockUploadRepository)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Upload")).Return(nil)

	store := newFakeStore()
	svc := NewUploadService(mockRepo, store, nil, 10*1024*1024)

	caller := owner()
	meta := RequestMeta{UserAgent: "test-agent", IPAddress: "10.0.0.1"}

	upload, err := svc.Upload(context.Background(), caller, pngPayload("pic.png", 2048), meta)

	assert.NoError(t, err)
	assert.NotNil(t, upload)
	assert.Equal(t, "pic.png", upload.OriginalFilename)
	assert.Equal(t, "image/png", upload.MimeType)
	assert.Equal(t, int64(2048), upload.FileSize)
	assert.Equal(t, caller.ID, upload.UserID)
	assert.Equal(t, model.UploadStatusCompleted, upload.Status)
	assert.Equal(t, "test-bucket", upload.StorageBucket)

	// one write for the original, one for the QR code
	assert.Equal(t, 2, store.putCalls)
	assert.True(t, strings.HasPrefix(upload.StorageKey, "uploads/"+caller.ID.String()+"/"))
	assert.True(t, strings.HasPrefix(upload.QRStorageKey, "qr-codes/"+upload.ID.String()+"-"))
	assert.True(t, strings.HasSuffix(upload.QRStorageKey, ".png"))
	assert.NotEmpty(t, upload.FileURL)
	assert.NotEmpty(t, upload.QRCodeURL)
	assert.Equal(t, "image/png", store.contentTypes[upload.QRStorageKey])
	assert.NotEmpty(t, store.objects[upload.QRStorageKey])

	assert.Equal(t, "test-agent", upload.Metadata["user_agent"])
	assert.Equal(t, "10.0.0.1", upload.Metadata["ip_address"])
	assert.Equal(t, upload.ID.String(), upload.Metadata["upload_id"])

	mockRepo.AssertExpectations(t)
}

func TestUploadService_Upload_StoreFailure(t *testing.T) {
	mockRepo := new(MockUploadRepository)
	store := newFakeStore()
	store.failPut = true
	svc := NewUploadService(mockRepo, store, nil, 10*1024*1024)

	upload, err := svc.Upload(context.Background(), owner(), pngPayload("pic.png", 64), RequestMeta{})

	assert.Error(t, err)
	assert.Nil(t, upload)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUploadService_GetUpload_Access(t *testing.T) {
	ownerID := uuid.New()
	uploadID := uuid.New()
	record := &model.Upload{ID: uploadID, UserID: ownerID}

	tests := []struct {
		name          string
		caller        auth.Identity
		setupMock     func(*MockUploadRepository)
		expectedError error
	}{
		{
			name:   "owner can read",
			caller: auth.Identity{ID: ownerID, Role: model.RoleUser},
			setupMock: func(m *MockUploadRepository) {
				m.On("FindByID", mock.Anything, uploadID).Return(record, nil)
			},
		},
		{
			name:   "admin can read another user's upload",
			caller: auth.Identity{ID: uuid.New(), Role: model.RoleAdmin},
			setupMock: func(m *MockUploadRepository) {
				m.On("FindByID", mock.Anything, uploadID).Return(record, nil)
			},
		},
		{
			name:   "stranger is forbidden",
			caller: auth.Identity{ID: uuid.New(), Role: model.RoleUser},
			setupMock: func(m *MockUploadRepository) {
				m.On("FindByID", mock.Anything, uploadID).Return(record, nil)
			},
			expectedError: apperrors.ErrForbidden,
		},
		{
			name:   "absent record is not found",
			caller: auth.Identity{ID: ownerID, Role: model.RoleUser},
			setupMock: func(m *MockUploadRepository) {
				m.On("FindByID", mock.Anything, uploadID).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrUploadNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUploadRepository)
			tt.setupMock(mockRepo)
			svc := NewUploadService(mockRepo, newFakeStore(), nil, 10*1024*1024)

			got, err := svc.GetUpload(context.Background(), tt.caller, uploadID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, got)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, record, got)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUploadService_ListByOwner_Pagination(t *testing.T) {
	caller := owner()

	tests := []struct {
		name           string
		page, limit    int
		expectedLimit  int
		expectedOffset int
		expectedPage   int
	}{
		{name: "defaults", page: 0, limit: 0, expectedLimit: 20, expectedOffset: 0, expectedPage: 1},
		{name: "second page", page: 2, limit: 10, expectedLimit: 10, expectedOffset: 10, expectedPage: 2},
		{name: "negative page falls back", page: -3, limit: 5, expectedLimit: 5, expectedOffset: 0, expectedPage: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUploadRepository)
			mockRepo.On("FindByUserID", mock.Anything, caller.ID, tt.expectedLimit, tt.expectedOffset).
				Return([]model.Upload{}, nil)
			mockRepo.On("CountByUserID", mock.Anything, caller.ID).Return(int64(42), nil)

			svc := NewUploadService(mockRepo, newFakeStore(), nil, 10*1024*1024)
			_, pagination, err := svc.ListByOwner(context.Background(), caller, tt.page, tt.limit)

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedPage, pagination.Page)
			assert.Equal(t, tt.expectedLimit, pagination.Limit)
			assert.Equal(t, int64(42), pagination.Total)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUploadService_SignedDownloadURL(t *testing.T) {
	caller := owner()
	uploadID := uuid.New()
	record := &model.Upload{ID: uploadID, UserID: caller.ID, StorageKey: "uploads/x/pic.png", OriginalFilename: "pic.png"}

	mockRepo := new(MockUploadRepository)
	mockRepo.On("FindByID", mock.Anything, uploadID).Return(record, nil)

	store := newFakeStore()
	svc := NewUploadService(mockRepo, store, nil, 10*1024*1024)

	url, expiresIn, err := svc.SignedDownloadURL(context.Background(), caller, uploadID, 0)

	assert.NoError(t, err)
	assert.Equal(t, 3600, expiresIn)
	assert.Contains(t, url, "signed=1")
	assert.Equal(t, 1, store.presignCalls)
}

func TestUploadService_Delete(t *testing.T) {
	caller := owner()
	uploadID := uuid.New()
	record := &model.Upload{
		ID:           uploadID,
		UserID:       caller.ID,
		StorageKey:   "uploads/x/pic.png",
		QRStorageKey: "qr-codes/x.png",
	}

	t.Run("deletes objects then record", func(t *testing.T) {
		mockRepo := new(MockUploadRepository)
		mockRepo.On("FindByID", mock.Anything, uploadID).Return(record, nil)
		mockRepo.On("Delete", mock.Anything, uploadID).Return(nil)

		store := newFakeStore()
		store.objects[record.StorageKey] = []byte{1}
		store.objects[record.QRStorageKey] = []byte{2}

		svc := NewUploadService(mockRepo, store, nil, 10*1024*1024)
		err := svc.Delete(context.Background(), caller, uploadID)

		assert.NoError(t, err)
		assert.Equal(t, 1, store.deleteCalls)
		assert.Empty(t, store.objects)
		mockRepo.AssertExpectations(t)
	})

	t.Run("store failure keeps the record", func(t *testing.T) {
		mockRepo := new(MockUploadRepository)
		mockRepo.On("FindByID", mock.Anything, uploadID).Return(record, nil)

		store := newFakeStore()
		store.failDelete = true

		svc := NewUploadService(mockRepo, store, nil, 10*1024*1024)
		err := svc.Delete(context.Background(), caller, uploadID)

		assert.Error(t, err)
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestUploadService_Stats(t *testing.T) {
	mockRepo := new(MockUploadRepository)
	mockRepo.On("Stats", mock.Anything).Return(&repository.UploadStats{
		TotalUploads:      3,
		Uploads30d:        2,
		TotalStorageBytes: 3 * 1024 * 1024,
		AvgFileSize:       1024 * 1024,
	}, nil)

	svc := NewUploadService(mockRepo, newFakeStore(), nil, 10*1024*1024)
	stats, err := svc.Stats(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalUploads)
	assert.Equal(t, int64(3), stats.TotalStorageMB)
	assert.Equal(t, int64(1), stats.AvgFileSizeMB)
}

func TestGenerateStorageName(t *testing.T) {
	name := generateStorageName("holiday pic.png")

	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.True(t, strings.HasPrefix(name, "holiday pic-"))

	// {basename}-{unixMillis}-{token}{ext}
	re := regexp.MustCompile(`^holiday pic-\d{13}-[0-9a-f]{8}\.png$`)
	assert.Regexp(t, re, name)

	// distinct invocations produce distinct names
	assert.NotEqual(t, name, generateStorageName("holiday pic.png"))
}
