package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNormalizePair(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	lo1, hi1 := NormalizePair(a, b)
	lo2, hi2 := NormalizePair(b, a)

	assert.Equal(t, lo1, lo2)
	assert.Equal(t, hi1, hi2)
	assert.True(t, lo1.Hex() <= hi1.Hex())
}

func TestPairKeyIsOrderIndependent(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	assert.Equal(t, PairKey(a, b), PairKey(b, a))
	assert.NotEqual(t, PairKey(a, b), PairKey(a, primitive.NewObjectID()))
}

func TestFriendRequestIsTerminal(t *testing.T) {
	req := FriendRequest{Status: RequestPending}
	assert.False(t, req.IsTerminal())

	for _, status := range []string{RequestAccepted, RequestRejected, RequestCancelled} {
		req.Status = status
		assert.True(t, req.IsTerminal(), status)
	}
}
