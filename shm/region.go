// Package shm implements the named, growable, cross-process shared memory
// region that backs card buffers when streaming is enabled. It mirrors
// POSIX shm_open/mmap semantics on top of golang.org/x/sys/unix.
package shm

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/zokrezyl/yetty/yerr"
)

// HeaderSize is the number of bytes reserved at the start of every region
// for the region header, currently just an atomic generation counter
// padded out for future growth.
const HeaderSize = 64

const generationOffset = 0

// Region is a named, growable byte region shared between the terminal
// process (owner) and streaming clients (non-owners).
type Region struct {
	mu       sync.Mutex
	name     string
	path     string
	fd       int
	data     []byte
	size     int
	isOwner  bool
	poisoned atomic.Bool
}

// Create creates a new shared memory region (server/owner side). Fails
// with yerr.AlreadyExists if a region of the same name already exists
// (including a stale one left by a crashed owner), or yerr.OsError for
// any other OS failure.
func Create(name string, initialSize int) (*Region, error) {
	if initialSize <= 0 {
		return nil, yerr.New(yerr.InvalidArgument, "shm: initial size must be positive")
	}
	path, err := resolvePath(name)
	if err != nil {
		return nil, yerr.Wrap(yerr.OsError, "shm: resolve path", err)
	}

	fd, err := unix.Open(path, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR, 0600)
	if err != nil {
		if err == unix.EEXIST {
			return nil, yerr.Wrap(yerr.AlreadyExists, "shm: region already exists: "+name, err)
		}
		return nil, yerr.Wrap(yerr.OsError, "shm: open for create", err)
	}

	total := HeaderSize + initialSize
	if err := unix.Ftruncate(fd, int64(total)); err != nil {
		_ = unix.Close(fd)
		_ = unix.Unlink(path)
		return nil, yerr.Wrap(yerr.OsError, "shm: ftruncate", err)
	}

	data, err := unix.Mmap(fd, 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		_ = unix.Unlink(path)
		return nil, yerr.Wrap(yerr.OsError, "shm: mmap", err)
	}

	r := &Region{
		name:    name,
		path:    path,
		fd:      fd,
		data:    data,
		size:    initialSize,
		isOwner: true,
	}
	r.setGeneration(0)
	slogger().Info("shm region created", "name", name, "size", initialSize)
	return r, nil
}

// Open opens an existing shared memory region (client side), mapping it
// at its current size. Fails with yerr.NotFound if the region does not
// exist.
func Open(name string) (*Region, error) {
	path, err := resolvePath(name)
	if err != nil {
		return nil, yerr.Wrap(yerr.OsError, "shm: resolve path", err)
	}

	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		if err == unix.ENOENT {
			return nil, yerr.Wrap(yerr.NotFound, "shm: no such region: "+name, err)
		}
		return nil, yerr.Wrap(yerr.OsError, "shm: open for read", err)
	}

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		_ = unix.Close(fd)
		return nil, yerr.Wrap(yerr.OsError, "shm: fstat", err)
	}
	total := int(st.Size)
	if total < HeaderSize {
		_ = unix.Close(fd)
		return nil, yerr.New(yerr.ProtocolError, "shm: region smaller than header")
	}

	data, err := unix.Mmap(fd, 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, yerr.Wrap(yerr.OsError, "shm: mmap", err)
	}

	return &Region{
		name:    name,
		path:    path,
		fd:      fd,
		data:    data,
		size:    total - HeaderSize,
		isOwner: false,
	}, nil
}

// resolvePath computes the on-disk location backing a named region:
// $YETTY_SHM_DIR if set, else /dev/shm (tmpfs) if that directory exists,
// else $XDG_RUNTIME_DIR or <os.TempDir()>/yetty-<uid>.
func resolvePath(name string) (string, error) {
	if override := os.Getenv("YETTY_SHM_DIR"); override != "" {
		return filepath.Join(override, name), nil
	}
	for _, dir := range []string{"/dev/shm"} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return filepath.Join(dir, name), nil
		}
	}
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = filepath.Join(os.TempDir(), fmt.Sprintf("yetty-%d", os.Getuid()))
	}
	if err := os.MkdirAll(base, 0700); err != nil {
		return "", err
	}
	return filepath.Join(base, name), nil
}

func (r *Region) checkAlive() error {
	if r.poisoned.Load() {
		return yerr.New(yerr.Unavailable, "shm: region is poisoned")
	}
	return nil
}

// Grow resizes the region. Owner only; fails with yerr.InvalidArgument if
// newSize is not strictly greater than the current size. On mmap/truncate
// failure the region attempts to remap at its previous size; if that also
// fails (or the unmap before growing fails) the region is poisoned, and
// every later Grow or Remap returns yerr.Unavailable. Data, Size,
// Generation and RawHeaderPointer do not check the poisoned state.
func (r *Region) Grow(newSize int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkAlive(); err != nil {
		return err
	}
	if !r.isOwner {
		return yerr.New(yerr.InvalidArgument, "shm: only the owner may grow a region")
	}
	if newSize <= r.size {
		return yerr.New(yerr.InvalidArgument, "shm: grow requires newSize > current size")
	}

	oldSize := r.size
	total := HeaderSize + newSize
	if err := unix.Munmap(r.data); err != nil {
		r.poisoned.Store(true)
		return yerr.Wrap(yerr.Unavailable, "shm: munmap before grow", err)
	}
	if err := unix.Ftruncate(r.fd, int64(total)); err != nil {
		if remapErr := r.remapAt(HeaderSize + oldSize); remapErr != nil {
			r.poisoned.Store(true)
			return yerr.Wrap(yerr.Unavailable, "shm: grow failed and remap-at-old-size failed", err)
		}
		return yerr.Wrap(yerr.OsError, "shm: ftruncate for grow", err)
	}
	if err := r.remapAt(total); err != nil {
		if remapErr := r.remapAt(HeaderSize + oldSize); remapErr != nil {
			r.poisoned.Store(true)
			return yerr.Wrap(yerr.Unavailable, "shm: mmap after grow failed and remap-at-old-size failed", err)
		}
		return yerr.Wrap(yerr.OsError, "shm: mmap after grow", err)
	}

	// Zero-fill the new tail; ftruncate on tmpfs already zero-fills, but a
	// growth target may be backed by a sparse region on exotic filesystems.
	for i := HeaderSize + oldSize; i < total; i++ {
		r.data[i] = 0
	}
	r.size = newSize
	r.bumpGeneration()
	slogger().Info("shm region grown", "name", r.name, "old_size", oldSize, "new_size", newSize)
	return nil
}

// Remap re-reads the region's current size from the filesystem and remaps
// it. Clients call this after observing a generation bump.
func (r *Region) Remap() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkAlive(); err != nil {
		return err
	}

	var st unix.Stat_t
	if err := unix.Fstat(r.fd, &st); err != nil {
		return yerr.Wrap(yerr.OsError, "shm: fstat for remap", err)
	}
	total := int(st.Size)
	if total == len(r.data) {
		return nil
	}
	if err := unix.Munmap(r.data); err != nil {
		r.poisoned.Store(true)
		return yerr.Wrap(yerr.Unavailable, "shm: munmap before remap", err)
	}
	if err := r.remapAt(total); err != nil {
		r.poisoned.Store(true)
		return yerr.Wrap(yerr.Unavailable, "shm: remap", err)
	}
	r.size = total - HeaderSize
	return nil
}

func (r *Region) remapAt(total int) error {
	data, err := unix.Mmap(r.fd, 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return err
	}
	r.data = data
	return nil
}

// Data returns the payload area (excluding the reserved header), sized at
// least to the region's last-known Size(). Valid until the next Grow/Remap.
func (r *Region) Data() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data[HeaderSize:]
}

// RawHeaderPointer returns a pointer to byte payloadOffset of the payload
// area, for constructing an AllocationHeader overlay at that offset.
func (r *Region) RawHeaderPointer(payloadOffset uint32) unsafe.Pointer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return unsafe.Pointer(&r.data[HeaderSize+int(payloadOffset)])
}

// Size returns the current payload size in bytes (excluding the header).
func (r *Region) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Name returns the region's name.
func (r *Region) Name() string { return r.name }

// IsOwner reports whether this Region was created (not opened) by this
// process.
func (r *Region) IsOwner() bool { return r.isOwner }

// Generation returns the current generation counter. Clients poll this
// and Remap() when it advances.
func (r *Region) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generationLocked()
}

func (r *Region) generationLocked() uint64 {
	p := (*atomic.Uint64)(unsafe.Pointer(&r.data[generationOffset]))
	return p.Load()
}

func (r *Region) setGeneration(v uint64) {
	p := (*atomic.Uint64)(unsafe.Pointer(&r.data[generationOffset]))
	p.Store(v)
}

func (r *Region) bumpGeneration() {
	p := (*atomic.Uint64)(unsafe.Pointer(&r.data[generationOffset]))
	p.Add(1)
}

// Close unmaps the region. If this Region is the owner, the underlying
// object is also unlinked (shm_unlink-equivalent): a region is destroyed
// only when the owner is dropped.
func (r *Region) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data != nil {
		_ = unix.Munmap(r.data)
		r.data = nil
	}
	if r.fd >= 0 {
		_ = unix.Close(r.fd)
		r.fd = -1
	}
	if r.isOwner {
		_ = unix.Unlink(r.path)
	}
	return nil
}
