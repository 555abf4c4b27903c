package geolib_test

import (
	"io"
	"testing"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite

	store geolib.Store
}

func (suite *StoreTestSuite) TearDownTest() {
	if closer, ok := suite.store.(io.Closer); ok {
		suite.NoError(closer.Close())
	}
}

func (suite *StoreTestSuite) TestGetPut() {
	_, ok := suite.store.Get("key")

	suite.False(ok)
	suite.NoError(suite.store.Put("key", []byte("value"), time.Minute))

	value, ok := suite.store.Get("key")

	suite.True(ok)
	suite.Equal([]byte("value"), value)
}

type TaggedStoreTestSuite struct {
	StoreTestSuite
}

func (suite *TaggedStoreTestSuite) TestSupportsTags() {
	suite.True(suite.store.SupportsTags())
}

func (suite *TaggedStoreTestSuite) TestTagsAreIndependent() {
	first := suite.store.Tags([]string{"a", "b"})
	second := suite.store.Tags([]string{"c"})

	suite.NoError(first.Put("key", []byte("first"), time.Minute))
	suite.NoError(second.Put("key", []byte("second"), time.Minute))

	value, ok := first.Get("key")

	suite.True(ok)
	suite.Equal([]byte("first"), value)

	suite.NoError(first.Flush())

	_, ok = first.Get("key")

	suite.False(ok)

	value, ok = second.Get("key")

	suite.True(ok)
	suite.Equal([]byte("second"), value)
}

func (suite *TaggedStoreTestSuite) TestTagsOrderDoesNotMatter() {
	suite.NoError(suite.store.Tags([]string{"a", "b"}).Put("key", []byte("value"), time.Minute))

	_, ok := suite.store.Tags([]string{"b", "a"}).Get("key")

	suite.True(ok)
}

type GoCacheStoreTestSuite struct {
	TaggedStoreTestSuite
}

func (suite *GoCacheStoreTestSuite) SetupTest() {
	suite.store = geolib.NewTaggedStore(time.Minute)
}

type BadgerStoreTestSuite struct {
	TaggedStoreTestSuite
}

func (suite *BadgerStoreTestSuite) SetupTest() {
	store, err := geolib.NewBadgerStore("")

	suite.Require().NoError(err)

	suite.store = store
}

func (suite *BadgerStoreTestSuite) TestPersistent() {
	dir := suite.T().TempDir()
	store, err := geolib.NewBadgerStore(dir)

	suite.Require().NoError(err)
	suite.NoError(store.Put("key", []byte("value"), 0))
	suite.NoError(store.(io.Closer).Close())

	store, err = geolib.NewBadgerStore(dir)

	suite.Require().NoError(err)

	defer store.(io.Closer).Close()

	value, ok := store.Get("key")

	suite.True(ok)
	suite.Equal([]byte("value"), value)
}

type UntaggedStoreTestSuite struct {
	StoreTestSuite
}

func (suite *UntaggedStoreTestSuite) TestNoTags() {
	suite.False(suite.store.SupportsTags())
	suite.Equal(suite.store, suite.store.Tags([]string{"a"}))
}

func (suite *UntaggedStoreTestSuite) TestFlush() {
	suite.NoError(suite.store.Put("key", []byte("value"), time.Minute))
	suite.NoError(suite.store.Flush())

	_, ok := suite.store.Get("key")

	suite.False(ok)
}

type MemoryStoreTestSuite struct {
	UntaggedStoreTestSuite
}

func (suite *MemoryStoreTestSuite) SetupTest() {
	store, err := geolib.NewMemoryStore(100)

	suite.Require().NoError(err)

	suite.store = store
}

type LRUStoreTestSuite struct {
	UntaggedStoreTestSuite
}

func (suite *LRUStoreTestSuite) SetupTest() {
	suite.store = geolib.NewLRUStore(100, time.Minute)
}

func (suite *LRUStoreTestSuite) TestExpired() {
	store := geolib.NewLRUStore(100, 50*time.Millisecond)

	suite.NoError(store.Put("key", []byte("value"), 0))

	suite.Eventually(func() bool {
		_, ok := store.Get("key")

		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestGoCacheStore(t *testing.T) {
	suite.Run(t, &GoCacheStoreTestSuite{})
}

func TestBadgerStore(t *testing.T) {
	suite.Run(t, &BadgerStoreTestSuite{})
}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &MemoryStoreTestSuite{})
}

func TestLRUStore(t *testing.T) {
	suite.Run(t, &LRUStoreTestSuite{})
}
