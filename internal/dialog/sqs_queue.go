package dialog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSQueue is the production utterance queue.
type SQSQueue struct {
	client   sqsAPI
	queueURL string
}

// NewSQSQueue wraps an SQS client and queue URL.
func NewSQSQueue(client sqsAPI, queueURL string) (*SQSQueue, error) {
	if client == nil {
		return nil, fmt.Errorf("dialog: sqs client is required")
	}
	if queueURL == "" {
		return nil, fmt.Errorf("dialog: sqs queue url is required")
	}
	return &SQSQueue{client: client, queueURL: queueURL}, nil
}

func (q *SQSQueue) Publish(ctx context.Context, u Utterance) error {
	body, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("dialog: marshal utterance: %w", err)
	}
	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("dialog: sqs send: %w", err)
	}
	return nil
}

// Receive long-polls for up to 10 utterances.
func (q *SQSQueue) Receive(ctx context.Context) ([]QueueMessage, error) {
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     20,
	})
	if err != nil {
		return nil, fmt.Errorf("dialog: sqs receive: %w", err)
	}

	msgs := make([]QueueMessage, 0, len(out.Messages))
	for _, raw := range out.Messages {
		var u Utterance
		if err := json.Unmarshal([]byte(aws.ToString(raw.Body)), &u); err != nil {
			// A poison message is acknowledged immediately so it cannot
			// wedge the queue.
			_, _ = q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(q.queueURL),
				ReceiptHandle: raw.ReceiptHandle,
			})
			continue
		}
		msgs = append(msgs, QueueMessage{Utterance: u, Receipt: aws.ToString(raw.ReceiptHandle)})
	}
	return msgs, nil
}

func (q *SQSQueue) Delete(ctx context.Context, msg QueueMessage) error {
	if msg.Receipt == "" {
		return nil
	}
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(msg.Receipt),
	})
	if err != nil {
		return fmt.Errorf("dialog: sqs delete: %w", err)
	}
	return nil
}
