package profile

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML profile and validates it. Unknown fields fail the load.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// csv 경로는 프로필 파일 기준 상대경로
	if p.Source.Kind == SourceCSV && p.Source.Path != "" && !filepath.IsAbs(p.Source.Path) {
		p.Source.Path = filepath.Join(filepath.Dir(path), p.Source.Path)
	}

	return p, nil
}

// Parse decodes and validates YAML bytes
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Parse(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}

	if err := Validate(&p); err != nil {
		return nil, err
	}

	return &p, nil
}

// LoadDir loads every *.yaml / *.yml profile in dir, sorted by file name.
func LoadDir(dir string) ([]*Profile, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	profiles := make([]*Profile, 0, len(paths))
	for _, path := range paths {
		p, err := Load(path)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// Hash generates SHA256 hash from Profile (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(p *Profile) (string, error) {
	jsonBytes, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
