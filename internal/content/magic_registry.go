package content

// Built-in FileType definitions. Each init registers one family; a
// downstream consumer (a plugin, a test) can call Register directly to add
// more without modifying this list.

func init() {
	Register(FileType{
		ID: "jpeg", Name: "JPEG Image", Category: "image", MIME: "image/jpeg",
		Extensions:    []string{"jpg", "jpeg"},
		MagicPatterns: []MagicPattern{{Offset: 0, Bytes: []byte{0xFF, 0xD8, 0xFF}}},
		Priority:      10,
	})
	Register(FileType{
		ID: "png", Name: "PNG Image", Category: "image", MIME: "image/png",
		Extensions:    []string{"png"},
		MagicPatterns: []MagicPattern{{Offset: 0, Bytes: []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}}},
		Priority:      10,
	})
	Register(FileType{
		ID: "gif", Name: "GIF Image", Category: "image", MIME: "image/gif",
		Extensions:    []string{"gif"},
		MagicPatterns: []MagicPattern{{Offset: 0, Bytes: []byte("GIF8")}},
		Priority:      10,
	})
	Register(FileType{
		ID: "webp", Name: "WebP Image", Category: "image", MIME: "image/webp",
		Extensions:    []string{"webp"},
		MagicPatterns: []MagicPattern{{Offset: 0, Bytes: []byte("RIFF")}, {Offset: 8, Bytes: []byte("WEBP")}},
		Priority:      10,
	})
	Register(FileType{
		ID: "pdf", Name: "PDF Document", Category: "document", MIME: "application/pdf",
		Extensions:    []string{"pdf"},
		MagicPatterns: []MagicPattern{{Offset: 0, Bytes: []byte("%PDF-")}},
		Priority:      10,
	})
	Register(FileType{
		ID: "mp4", Name: "MPEG-4 Video", Category: "video", MIME: "video/mp4",
		Extensions:    []string{"mp4", "m4v"},
		MagicPatterns: []MagicPattern{{Offset: 4, Bytes: []byte("ftyp")}},
		Priority:      10,
	})
	Register(FileType{
		ID: "mpeg_ts", Name: "MPEG Transport Stream", Category: "video", MIME: "video/mp2t",
		Extensions:    []string{"ts"},
		MagicPatterns: []MagicPattern{{Offset: 0, Bytes: []byte{0x47}}},
		// Lower priority than typescript_source: a `.ts` file whose magic
		// scan doesn't actually find the MPEG-TS sync byte falls through to
		// the extension-only typescript match instead.
		Priority: 5,
	})
	Register(FileType{
		ID: "typescript_source", Name: "TypeScript Source", Category: "code", MIME: "text/plain",
		Extensions: []string{"ts"},
		// No magic pattern: plain text source has no reliable byte
		// signature, so this entry only ever wins via extension-only
		// matching when the MPEG-TS sync byte scan above fails.
		Priority: 1,
	})
	Register(FileType{
		ID: "mp3", Name: "MP3 Audio", Category: "audio", MIME: "audio/mpeg",
		Extensions:    []string{"mp3"},
		MagicPatterns: []MagicPattern{{Offset: 0, Bytes: []byte{0xFF, 0xFB}}},
		Priority:      10,
	})
	Register(FileType{
		ID: "zip", Name: "ZIP Archive", Category: "archive", MIME: "application/zip",
		Extensions:    []string{"zip"},
		MagicPatterns: []MagicPattern{{Offset: 0, Bytes: []byte{'P', 'K', 0x03, 0x04}}},
		Priority:      10,
	})
	Register(FileType{
		ID: "plain_text", Name: "Plain Text", Category: "document", MIME: "text/plain",
		Extensions: []string{"txt", "md", "log"},
		Priority:   1,
	})
}
