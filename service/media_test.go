package service

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
)

func TestMediaStorePutAndResolve(t *testing.T) {
	m, err := NewMediaStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	payload := []byte("fake png bytes")
	url, err := m.Put(bytes.NewReader(payload), "panels/p1/image.png", int64(len(payload)))
	if err != nil {
		t.Fatal(err)
	}
	if url != "/media/panels/p1/image.png" {
		t.Errorf("url = %q", url)
	}

	data, ext, err := m.Resolve(url)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, payload) || ext != ".png" {
		t.Errorf("Resolve 返回不一致: %d bytes, ext %q", len(data), ext)
	}
}

func TestMediaStorePutRejectsTraversal(t *testing.T) {
	m, err := NewMediaStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"../escape.png", "/abs/path.png", "."} {
		if _, err := m.Put(strings.NewReader("x"), name, 1); err == nil {
			t.Errorf("路径 %q 应被拒绝", name)
		}
	}

	// 大小不匹配的写入要回滚
	if _, err := m.Put(strings.NewReader("abc"), "short.png", 10); err == nil {
		t.Error("大小不匹配应报错")
	}
	if _, _, err := m.Resolve("/media/short.png"); err == nil {
		t.Error("失败的写入不应留下文件")
	}
}

func TestMediaStoreResolveDataURI(t *testing.T) {
	m, err := NewMediaStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	payload := []byte{0x01, 0x02, 0x03}
	ref := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(payload)
	data, ext, err := m.Resolve(ref)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, payload) || ext != ".jpg" {
		t.Errorf("data URI 解析不对: %v, %q", data, ext)
	}

	// 非 base64 的 data URI 与未知形态都拒绝
	if _, _, err := m.Resolve("data:text/plain,hello"); err == nil {
		t.Error("非 base64 data URI 应报错")
	}
	if _, _, err := m.Resolve("https://example.com/a.png"); err == nil {
		t.Error("远程 URL 应报错")
	}
	if _, _, err := m.Resolve("/media/../../etc/passwd"); err == nil {
		t.Error("越界的媒体引用应报错")
	}
}

func TestContentTypeByExt(t *testing.T) {
	cases := map[string]string{
		"a.PNG":  "image/png",
		"b.jpeg": "image/jpeg",
		"c.mp4":  "video/mp4",
		"d.bin":  "application/octet-stream",
	}
	for name, want := range cases {
		if got := ContentTypeByExt(name); got != want {
			t.Errorf("ContentTypeByExt(%q) = %q, want %q", name, got, want)
		}
	}
}
