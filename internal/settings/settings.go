package settings

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Русский комментарий: Идентичность бота (имя и подпись владельца)
// лежит в settings.yaml рядом с бинарником. Файл опционален:
// при его отсутствии используются значения по умолчанию.

type Identity struct {
	Bot struct {
		Name  string `yaml:"name"`
		Owner string `yaml:"owner"`
	} `yaml:"bot"`
}

func LoadIdentity() (*Identity, error) {
	path := filepath.Join(".", "settings.yaml")

	var id Identity
	id.Bot.Name = "Eclipse"
	id.Bot.Owner = "owner"

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &id, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, &id); err != nil {
		return nil, err
	}
	return &id, nil
}
