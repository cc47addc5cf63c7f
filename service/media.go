package service

import (
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// MediaStore 本地文件媒体库：面板的媒体引用落在数据目录下，
// 对核心来说引用是不透明字符串（data URI 或 /media/ 路径），
// 这里只负责存取字节，从不解析媒体内容本身
type MediaStore struct {
	dir string
}

func NewMediaStore(dir string) (*MediaStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建媒体目录失败: %w", err)
	}
	return &MediaStore{dir: dir}, nil
}

// Dir 媒体根目录（静态文件路由挂载用）
func (m *MediaStore) Dir() string {
	return m.dir
}

// ContentTypeByExt 根据文件扩展名确定 ContentType
func ContentTypeByExt(name string) string {
	contentType := "application/octet-stream"
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	case ".webp":
		contentType = "image/webp"
	case ".gif":
		contentType = "image/gif"
	case ".mp4":
		contentType = "video/mp4"
	case ".mp3":
		contentType = "audio/mpeg"
	case ".wav":
		contentType = "audio/wav"
	}
	return contentType
}

// Put 通用存储函数，从 io.Reader 写入媒体目录，返回可引用的 /media/ 路径
// 参数:
//   - reader: 文件数据流 (可以是上传请求体或其他 io.Reader)
//   - objectName: 存储相对路径，例如 "panels/123/image.png"
//   - size: 文件大小（字节），-1 表示未知大小
func (m *MediaStore) Put(reader io.Reader, objectName string, size int64) (string, error) {
	clean := filepath.Clean(objectName)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("非法的媒体路径: %s", objectName)
	}

	fullPath := filepath.Join(m.dir, clean)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("创建媒体子目录失败: %w", err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("写入媒体文件失败: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, reader)
	if err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("写入媒体文件失败: %w", err)
	}
	if size >= 0 && written != size {
		os.Remove(fullPath)
		return "", fmt.Errorf("媒体大小不匹配: 期望 %d, 实际 %d", size, written)
	}

	log.Printf("媒体已写入: %s (%d bytes)", clean, written)
	return "/media/" + filepath.ToSlash(clean), nil
}

// Resolve 把不透明媒体引用解析成字节，供导出管线使用
// 支持两种形态：data URI（base64）和 /media/ 本地路径；
// 其他形态（远程 URL 等）一律按阶段错误处理
func (m *MediaStore) Resolve(ref string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURI(ref)

	case strings.HasPrefix(ref, "/media/"):
		rel := filepath.Clean(strings.TrimPrefix(ref, "/media/"))
		if rel == "." || strings.HasPrefix(rel, "..") {
			return nil, "", fmt.Errorf("非法的媒体引用: %s", ref)
		}
		data, err := os.ReadFile(filepath.Join(m.dir, rel))
		if err != nil {
			return nil, "", fmt.Errorf("读取媒体文件失败: %w", err)
		}
		return data, strings.ToLower(filepath.Ext(rel)), nil

	default:
		return nil, "", fmt.Errorf("不支持的媒体引用: %s", truncateRef(ref))
	}
}

// decodeDataURI 解析 "data:image/png;base64,...." 形态的引用
func decodeDataURI(ref string) ([]byte, string, error) {
	comma := strings.Index(ref, ",")
	if comma < 0 {
		return nil, "", fmt.Errorf("格式错误的 data URI")
	}
	meta := ref[len("data:"):comma]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", fmt.Errorf("不支持非 base64 的 data URI")
	}

	data, err := base64.StdEncoding.DecodeString(ref[comma+1:])
	if err != nil {
		return nil, "", fmt.Errorf("解码 data URI 失败: %w", err)
	}

	mime := strings.TrimSuffix(meta, ";base64")
	ext := ".png"
	switch mime {
	case "image/jpeg", "image/jpg":
		ext = ".jpg"
	case "image/webp":
		ext = ".webp"
	case "image/gif":
		ext = ".gif"
	case "video/mp4":
		ext = ".mp4"
	}
	return data, ext, nil
}

func truncateRef(ref string) string {
	if len(ref) > 64 {
		return ref[:64] + "..."
	}
	return ref
}
