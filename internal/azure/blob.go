package azure

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"
)

const (
	statePrefix  = "state/"
	reportPrefix = "reports/"
)

// BlobStorageClient wraps the Azure Blob Storage SDK for state slots and PDF archives
type BlobStorageClient struct {
	client        *azblob.Client
	containerName string
	logger        *zap.Logger
}

// NewBlobStorageClient creates a client authenticated with a shared account key
func NewBlobStorageClient(accountName, accountKey, containerName string, logger *zap.Logger) (*BlobStorageClient, error) {
	if accountName == "" || accountKey == "" || containerName == "" {
		return nil, fmt.Errorf("accountName, accountKey, and containerName are required")
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)

	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create shared key credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &BlobStorageClient{
		client:        client,
		containerName: containerName,
		logger:        logger,
	}, nil
}

// NewBlobStorageClientFromConnectionString creates a client from a connection string, e.g. for Azurite
func NewBlobStorageClientFromConnectionString(connectionString, containerName string, logger *zap.Logger) (*BlobStorageClient, error) {
	if connectionString == "" || containerName == "" {
		return nil, fmt.Errorf("connectionString and containerName are required")
	}

	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &BlobStorageClient{
		client:        client,
		containerName: containerName,
		logger:        logger,
	}, nil
}

// EnsureContainer creates the container if it does not exist yet
func (c *BlobStorageClient) EnsureContainer(ctx context.Context) error {
	_, err := c.client.CreateContainer(ctx, c.containerName, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("failed to create container %s: %w", c.containerName, err)
	}
	return nil
}

// UploadState overwrites the state blob name with data
func (c *BlobStorageClient) UploadState(ctx context.Context, name string, data []byte) error {
	blobName := stateBlobName(name)

	_, err := c.client.UploadBuffer(ctx, c.containerName, blobName, data, &azblob.UploadBufferOptions{
		Metadata: map[string]*string{
			"contenttype": toPtr("application/json"),
		},
	})
	if err != nil {
		c.logger.Error("failed to upload state",
			zap.String("blob_name", blobName),
			zap.Error(err),
		)
		return fmt.Errorf("failed to upload state %s: %w", name, err)
	}

	c.logger.Debug("state uploaded",
		zap.String("blob_name", blobName),
		zap.Int("size_bytes", len(data)),
	)
	return nil
}

// DownloadState reads the state blob name. A missing blob yields ErrBlobNotFound.
func (c *BlobStorageClient) DownloadState(ctx context.Context, name string) ([]byte, error) {
	blobName := stateBlobName(name)

	resp, err := c.client.DownloadStream(ctx, c.containerName, blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, blobName)
		}
		c.logger.Error("failed to download state",
			zap.String("blob_name", blobName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to download state %s: %w", name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read state %s: %w", name, err)
	}

	c.logger.Debug("state downloaded",
		zap.String("blob_name", blobName),
		zap.Int("size_bytes", len(data)),
	)
	return data, nil
}

// DeleteState removes the state blob name. Deleting a missing blob is not an error.
func (c *BlobStorageClient) DeleteState(ctx context.Context, name string) error {
	blobName := stateBlobName(name)

	_, err := c.client.DeleteBlob(ctx, c.containerName, blobName, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		c.logger.Error("failed to delete state",
			zap.String("blob_name", blobName),
			zap.Error(err),
		)
		return fmt.Errorf("failed to delete state %s: %w", name, err)
	}
	return nil
}

// UploadPDF archives an exported plan PDF and returns its blob name
func (c *BlobStorageClient) UploadPDF(ctx context.Context, filename string, data []byte) (string, error) {
	blobName := reportPrefix + filename

	_, err := c.client.UploadBuffer(ctx, c.containerName, blobName, data, &azblob.UploadBufferOptions{
		Metadata: map[string]*string{
			"contenttype": toPtr("application/pdf"),
		},
	})
	if err != nil {
		c.logger.Error("failed to upload PDF",
			zap.String("filename", filename),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to upload PDF: %w", err)
	}

	c.logger.Info("PDF uploaded successfully",
		zap.String("blob_name", blobName),
		zap.Int("size_bytes", len(data)),
	)
	return blobName, nil
}

func stateBlobName(name string) string {
	return statePrefix + strings.TrimPrefix(name, "/") + ".json"
}

func toPtr(s string) *string {
	return &s
}
