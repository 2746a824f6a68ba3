package news

import (
	"encoding/json"

	"github.com/westinedu/ai-courses-gcp/internal/models"
)

func marshalArticle(article models.Article) ([]byte, error) {
	return json.MarshalIndent(article, "", "  ")
}

func marshalManifest(manifest *models.Manifest) ([]byte, error) {
	return json.MarshalIndent(manifest, "", "  ")
}

func unmarshalManifest(data []byte) (*models.Manifest, error) {
	var manifest models.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}
