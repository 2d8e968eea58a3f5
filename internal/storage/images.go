// Package storage keeps product images in a MongoDB GridFS bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"path"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
)

const imagePathPrefix = "/api/v1/images/"

// Image is an open image stream.
type Image struct {
	io.ReadCloser
	ContentType string
	Size        int64
}

// ImageStore uploads, serves and deletes product images.
type ImageStore struct {
	bucket  *gridfs.Bucket
	baseURL string
	logger  *logging.LoggerV2
	now     func() time.Time
}

// Connect opens a MongoDB database and verifies it with a ping.
func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "ping mongodb")
	}
	return client.Database(database), nil
}

// NewImageStore creates an image store over the named GridFS bucket. Image
// URLs are rooted at baseURL.
func NewImageStore(db *mongo.Database, bucketName, baseURL string, logger *logging.LoggerV2) (*ImageStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, errors.Wrap(err, "open gridfs bucket")
	}
	return &ImageStore{
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Upload stores r and returns the public URL of the new image.
func (s *ImageStore) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", errors.NewValidationError("file", "only image uploads are accepted")
	}

	name := objectName(filename, s.now())
	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})

	id, err := s.bucket.UploadFromStream(name, withContext(ctx, r), opts)
	if err != nil {
		s.logger.Error("Image upload failed", logging.Fields{
			"name":  name,
			"error": err.Error(),
		})
		return "", errors.Wrap(err, "upload image")
	}

	url := s.baseURL + imagePathPrefix + id.Hex()
	s.logger.Info("Image uploaded", logging.Fields{
		"name": name,
		"url":  url,
	})
	return url, nil
}

// Open streams the image with the given object id.
func (s *ImageStore) Open(ctx context.Context, id string) (*Image, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.ErrNotFound
	}

	var file struct {
		Length   int64  `bson:"length"`
		Metadata bson.M `bson:"metadata"`
	}
	cursor, err := s.bucket.FindContext(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, errors.Wrap(err, "find image")
	}
	defer cursor.Close(ctx)
	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return nil, errors.Wrap(err, "find image")
		}
		return nil, errors.ErrNotFound
	}
	if err := cursor.Decode(&file); err != nil {
		return nil, errors.Wrap(err, "decode image metadata")
	}

	stream, err := s.bucket.OpenDownloadStream(oid)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}

	contentType, _ := file.Metadata["contentType"].(string)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Image{ReadCloser: stream, ContentType: contentType, Size: file.Length}, nil
}

// Delete removes the image behind url. URLs that do not point at this store
// are ignored.
func (s *ImageStore) Delete(ctx context.Context, url string) error {
	id, ok := s.objectID(url)
	if !ok {
		s.logger.Debug("Ignoring foreign image url", logging.Fields{"url": url})
		return nil
	}

	err := s.bucket.DeleteContext(ctx, id)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "delete image")
	}

	s.logger.Info("Image deleted", logging.Fields{"url": url})
	return nil
}

func (s *ImageStore) objectID(url string) (primitive.ObjectID, bool) {
	prefix := s.baseURL + imagePathPrefix
	if !strings.HasPrefix(url, prefix) {
		return primitive.NilObjectID, false
	}
	oid, err := primitive.ObjectIDFromHex(strings.TrimPrefix(url, prefix))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

func objectName(filename string, now time.Time) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("products/%d-%s.%s", now.UnixMilli(), randomSuffix(7), ext)
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = suffixAlphabet[rand.Intn(len(suffixAlphabet))]
	}
	return string(b)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func withContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
