package s3client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/aws/smithy-go"
)

func TestTrimS3KeyPrefix(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		prefix string
		want   string
	}{
		{"derivative under prefix", "resized/2020/beach-thumb.jpg", "resized", "2020/beach-thumb.jpg"},
		{"root level derivative", "resized/beach-thumb.jpg", "resized", "beach-thumb.jpg"},
		{"nested prefix", "site/img/resized/a-thumb.jpg", "site/img/resized", "a-thumb.jpg"},
		{"empty prefix", "2020/beach-thumb.jpg", "", "2020/beach-thumb.jpg"},
		{"prefix not matching", "other/a-thumb.jpg", "resized", "other/a-thumb.jpg"},
		{"shared string prefix is not a directory", "resized-old/a-thumb.jpg", "resized", "resized-old/a-thumb.jpg"},
		{"exact prefix without slash", "resized", "resized", "resized"},
		{"directory marker", "resized/", "resized", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := trimS3KeyPrefix(tt.key, tt.prefix)
			if got != tt.want {
				t.Errorf("trimS3KeyPrefix(%q, %q) = %q, want %q", tt.key, tt.prefix, got, tt.want)
			}
		})
	}
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		name       string
		uri        string
		wantBucket string
		wantPrefix string
		wantErr    bool
	}{
		{"bucket only", "s3://photos", "photos", "", false},
		{"bucket with slash", "s3://photos/", "photos", "", false},
		{"prefix", "s3://photos/resized", "photos", "resized", false},
		{"nested prefix with trailing slashes", "s3://photos/prefix/subdir///", "photos", "prefix/subdir", false},
		{"missing scheme", "photos/resized", "", "", true},
		{"missing bucket", "s3:///resized", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, prefix, err := ParseS3URI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseS3URI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			}
			if bucket != tt.wantBucket || prefix != tt.wantPrefix {
				t.Errorf("ParseS3URI(%q) = (%q, %q), want (%q, %q)", tt.uri, bucket, prefix, tt.wantBucket, tt.wantPrefix)
			}
		})
	}
}

// ParseS3URI output feeds trimS3KeyPrefix when listing.
func TestPrefixHandlingIntegration(t *testing.T) {
	testCases := []struct {
		name           string
		s3URI          string
		s3Key          string
		expectedResult string
	}{
		{
			name:           "URI without trailing slash",
			s3URI:          "s3://bucket/prefix/subdir",
			s3Key:          "prefix/subdir/2020/a-thumb.jpg",
			expectedResult: "2020/a-thumb.jpg",
		},
		{
			name:           "URI with trailing slash",
			s3URI:          "s3://bucket/prefix/subdir/",
			s3Key:          "prefix/subdir/a-thumb.jpg",
			expectedResult: "a-thumb.jpg",
		},
		{
			name:           "URI with multiple trailing slashes",
			s3URI:          "s3://bucket/prefix/subdir///",
			s3Key:          "prefix/subdir/a-thumb.jpg",
			expectedResult: "a-thumb.jpg",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, prefix, err := ParseS3URI(tc.s3URI)
			if err != nil {
				t.Fatalf("ParseS3URI() unexpected error: %v", err)
			}

			result := trimS3KeyPrefix(tc.s3Key, prefix)
			if result != tc.expectedResult {
				t.Errorf("Expected %q, got %q", tc.expectedResult, result)
			}
			if back := JoinKey(prefix, result); back != tc.s3Key {
				t.Errorf("JoinKey(%q, %q) = %q, want %q", prefix, result, back, tc.s3Key)
			}
		})
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"slow down", &smithy.GenericAPIError{Code: "SlowDown"}, true},
		{"service unavailable", &smithy.GenericAPIError{Code: "ServiceUnavailable"}, true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"wrapped timeout", fmt.Errorf("put: %w", context.DeadlineExceeded), true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetry(t *testing.T) {
	c := &AWSClient{maxRetries: 3, baseDelay: time.Millisecond, maxDelay: 5 * time.Millisecond}

	calls := 0
	err := c.withRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &smithy.GenericAPIError{Code: "SlowDown"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withRetry() unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("op called %d times, want 3", calls)
	}

	calls = 0
	denied := &smithy.GenericAPIError{Code: "AccessDenied"}
	err = c.withRetry(context.Background(), func() error {
		calls++
		return denied
	})
	if !errors.Is(err, denied) || calls != 1 {
		t.Errorf("non-retryable error: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = c.withRetry(context.Background(), func() error {
		calls++
		return &smithy.GenericAPIError{Code: "SlowDown"}
	})
	if err == nil || calls != 4 {
		t.Errorf("exhausted retries: err=%v calls=%d", err, calls)
	}
}
