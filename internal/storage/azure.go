package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/sirupsen/logrus"
)

// AzureStorage keeps artifacts as blobs in one container
type AzureStorage struct {
	client        *azblob.Client
	accountName   string
	containerName string
}

// Ensure AzureStorage implements StorageInterface
var _ StorageInterface = (*AzureStorage)(nil)

// NewAzureStorage connects with the default Azure credential chain and ensures the container exists
func NewAzureStorage(ctx context.Context, accountName, containerName string) (*AzureStorage, error) {
	if accountName == "" {
		return nil, fmt.Errorf("storage account name is required")
	}
	if containerName == "" {
		return nil, fmt.Errorf("storage container name is required")
	}

	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClient(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
	}

	storage := &AzureStorage{
		client:        client,
		accountName:   accountName,
		containerName: containerName,
	}

	if err := storage.ensureContainer(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure container exists: %w", err)
	}

	return storage, nil
}

func (s *AzureStorage) ensureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.containerName, nil)
	if err != nil {
		if !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			return fmt.Errorf("failed to create container: %w", err)
		}
		logrus.Debugf("Container %s already exists", s.containerName)
	} else {
		logrus.Infof("Created container %s", s.containerName)
	}

	return nil
}

// Store uploads data, replacing any existing blob. Block blob commits are atomic.
func (s *AzureStorage) Store(ctx context.Context, name string, data []byte) error {
	_, err := s.client.UploadBuffer(ctx, s.containerName, name, data, &azblob.UploadBufferOptions{
		BlockSize:   int64(1024 * 1024), // 1MB blocks
		Concurrency: 3,
	})
	if err != nil {
		return fmt.Errorf("failed to upload blob %s: %w", name, err)
	}

	logrus.Debugf("Stored %s in container %s", name, s.containerName)
	return nil
}

// Retrieve downloads a blob, returning ErrNotFound when it does not exist
func (s *AzureStorage) Retrieve(ctx context.Context, name string) ([]byte, error) {
	response, err := s.client.DownloadStream(ctx, s.containerName, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to download blob %s: %w", name, err)
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob content: %w", err)
	}

	return data, nil
}

// List returns the names of blobs starting with prefix
func (s *AzureStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var blobNames []string
	pager := s.client.NewListBlobsFlatPager(s.containerName, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", err)
		}

		for _, blob := range page.Segment.BlobItems {
			if blob.Name != nil {
				blobNames = append(blobNames, *blob.Name)
			}
		}
	}

	return blobNames, nil
}

// Location returns the blob URL of name
func (s *AzureStorage) Location(name string) string {
	return fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s", s.accountName, s.containerName, name)
}
