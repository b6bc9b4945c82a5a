// Package segment stores one document's n-gram index per file: a fixed
// header, the JSON-encoded posting list of every key, a JSON dictionary
// locating each list, and a footer carrying the dictionary checksum.
package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/index"
)

type Reader struct {
	file     *os.File
	filePath string
	header   SegmentHeader
	dict     Dictionary
}

func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	headerBytes := make([]byte, HeaderSize)
	if _, err := f.ReadAt(headerBytes, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading segment header: %w", err)
	}
	header := decodeHeader(headerBytes)
	if header.Magic != MagicBytes {
		f.Close()
		return nil, fmt.Errorf("invalid segment file: bad magic bytes %x", header.Magic)
	}
	if header.Version != FormatVersion {
		f.Close()
		return nil, fmt.Errorf("unsupported segment version %d", header.Version)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat segment file: %w", err)
	}
	if header.DictOffset < int64(HeaderSize) || header.DictSize < 0 ||
		header.DictOffset+header.DictSize+int64(FooterSize) != info.Size() {
		f.Close()
		return nil, fmt.Errorf("invalid segment file %s: truncated or corrupt layout", path)
	}
	dictBytes := make([]byte, header.DictSize)
	if _, err := f.ReadAt(dictBytes, header.DictOffset); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}
	footer := make([]byte, FooterSize)
	if _, err := f.ReadAt(footer, header.DictOffset+header.DictSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading footer: %w", err)
	}
	if sum := binary.LittleEndian.Uint32(footer[0:4]); sum != crc32.ChecksumIEEE(dictBytes) {
		f.Close()
		return nil, fmt.Errorf("dictionary checksum mismatch in %s", path)
	}
	var dict Dictionary
	if err := json.Unmarshal(dictBytes, &dict); err != nil {
		f.Close()
		return nil, fmt.Errorf("parsing dictionary: %w", err)
	}
	return &Reader{
		file:     f,
		filePath: path,
		header:   header,
		dict:     dict,
	}, nil
}

// Search returns the posting list of key, or nil when the key is absent.
func (r *Reader) Search(key string) (index.PostingList, error) {
	entries := r.dict.Entries
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].Key >= key
	})
	if i >= len(entries) || entries[i].Key != key {
		return nil, nil
	}
	return r.read(entries[i])
}

// Load reads every posting list back into an Index.
func (r *Reader) Load() (index.Index, error) {
	idx := make(index.Index, len(r.dict.Entries))
	for _, entry := range r.dict.Entries {
		pl, err := r.read(entry)
		if err != nil {
			return nil, err
		}
		idx[entry.Key] = pl
	}
	return idx, nil
}

func (r *Reader) read(entry DictEntry) (index.PostingList, error) {
	postingsBytes := make([]byte, entry.PostLen)
	if _, err := r.file.ReadAt(postingsBytes, r.header.PostOffset+entry.PostOffset); err != nil {
		return nil, fmt.Errorf("reading postings: %w", err)
	}
	var postings index.PostingList
	if err := json.Unmarshal(postingsBytes, &postings); err != nil {
		return nil, fmt.Errorf("parsing postings: %w", err)
	}
	return postings, nil
}

func (r *Reader) DocID() string {
	return r.dict.DocID
}

func (r *Reader) Locale() string {
	return r.dict.Locale
}

func (r *Reader) Keys() int {
	return len(r.dict.Entries)
}

func (r *Reader) WordCount() uint32 {
	return r.header.WordCount
}

func (r *Reader) Close() error {
	return r.file.Close()
}
