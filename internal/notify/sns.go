package notify

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
)

// snsAPI is the subset of the SNS client used here.
type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher forwards events to an SNS topic so other services (mail,
// push) can fan them out.
type SNSPublisher struct {
	client   snsAPI
	topicARN string
}

// NewSNSPublisher builds a publisher from a loaded AWS config.
func NewSNSPublisher(cfg aws.Config, topicARN string) *SNSPublisher {
	return &SNSPublisher{client: sns.NewFromConfig(cfg), topicARN: topicARN}
}

var _ Notifier = (*SNSPublisher)(nil)

func (p *SNSPublisher) Notify(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(ev.Title),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_id": {DataType: aws.String("String"), StringValue: aws.String(uuid.NewString())},
			"type":     {DataType: aws.String("String"), StringValue: aws.String(ev.Type)},
			"user_id":  {DataType: aws.String("Number"), StringValue: aws.String(strconv.FormatUint(uint64(ev.UserID), 10))},
		},
	})
	return err
}
