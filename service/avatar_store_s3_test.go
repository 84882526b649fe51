package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lumeweb.com/accounts/core"
	"go.uber.org/zap"
)

const fakeS3PageSize = 2

// fakeS3 is an in-memory bucket serving the calls S3AvatarStore makes.
type fakeS3 struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	listCalls    int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), contentTypes: make(map[string]string)}
}

func (f *fakeS3) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++

	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(params.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	start := 0
	if params.ContinuationToken != nil {
		n, err := strconv.Atoi(*params.ContinuationToken)
		if err != nil {
			return nil, err
		}
		start = n
	}

	end := min(start+fakeS3PageSize, len(keys))

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, key := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}

	return out, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.objects[aws.ToString(params.Key)] = data
	f.contentTypes[aws.ToString(params.Key)] = aws.ToString(params.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}

	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]string, 0, len(f.objects))
	for key := range f.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

func newTestS3Store(client s3API) *S3AvatarStore {
	return &S3AvatarStore{client: client, bucket: "avatars-test", logger: zap.NewNop()}
}

func TestS3AvatarStore_WriteAndOpen(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	store := newTestS3Store(client)

	require.NoError(t, store.Write(ctx, "abc_me.png", strings.NewReader("png bytes")))
	assert.Equal(t, []string{"avatars/abc_me.png"}, client.Keys())
	assert.Equal(t, "image/png", client.contentTypes["avatars/abc_me.png"])

	r, err := store.Open(ctx, "abc_me.png")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "png bytes", string(data))
}

func TestS3AvatarStore_OpenMissingIsNotExist(t *testing.T) {
	store := newTestS3Store(newFakeS3())

	_, err := store.Open(context.Background(), "abc_missing.png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestS3AvatarStore_ListStripsPrefixAcrossPages(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	store := newTestS3Store(client)

	for _, name := range []string{"abc_1.png", "abc_2.png", "abc_3.png", "abd_4.png", "abc_5.png"} {
		require.NoError(t, store.Write(ctx, name, strings.NewReader(name)))
	}
	client.objects["elsewhere/abc_6.png"] = []byte("outside")

	names, err := store.List(ctx, "abc_")
	require.NoError(t, err)
	assert.Equal(t, []string{"abc_1.png", "abc_2.png", "abc_3.png", "abc_5.png"}, names)
	assert.Equal(t, 2, client.listCalls)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestS3AvatarStore_DeleteStaysInPrefix(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	store := newTestS3Store(client)

	require.NoError(t, store.Write(ctx, "abc_me.png", strings.NewReader("x")))
	client.objects["abc_me.png"] = []byte("not an avatar")

	require.NoError(t, store.Delete(ctx, "abc_me.png"))
	require.NoError(t, store.Delete(ctx, "abc_me.png"))

	assert.Equal(t, []string{"abc_me.png"}, client.Keys())
}

func TestAvatar_UpdateOnS3KeepsOneObject(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	accounts := newTestStore(t)
	avatar := newTestAvatarWithStore(t, accounts, newTestS3Store(client))
	account := insertAccount(t, accounts, "a@example.com")
	other := insertAccount(t, accounts, "b@example.com")

	_, err := avatar.Update(ctx, other.ID, core.AvatarUpload{TempPath: writeTempPNG(t, avatar.uploadDir, 4, 4), OriginalName: "other.png"})
	require.NoError(t, err)

	_, err = avatar.Update(ctx, account.ID, core.AvatarUpload{TempPath: writeTempPNG(t, avatar.uploadDir, 30, 10), OriginalName: "first.png"})
	require.NoError(t, err)

	url, err := avatar.Update(ctx, account.ID, core.AvatarUpload{TempPath: writeTempPNG(t, avatar.uploadDir, 10, 30), OriginalName: "second.gif"})
	require.NoError(t, err)
	assert.Equal(t, "https://accounts.example.com/avatars/"+account.ID+"_second.gif", url)

	var own []string
	for _, key := range client.Keys() {
		if strings.HasPrefix(key, s3AvatarPrefix+account.ID+"_") {
			own = append(own, key)
		}
	}
	assert.Equal(t, []string{s3AvatarPrefix + account.ID + "_second.gif"}, own)
	assert.Contains(t, client.Keys(), s3AvatarPrefix+other.ID+"_other.png")

	require.NoError(t, avatar.Purge(ctx, account.ID))
	assert.Equal(t, []string{s3AvatarPrefix + other.ID + "_other.png"}, client.Keys())
}
