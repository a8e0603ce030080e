package export

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"go.uber.org/zap"

	"github.com/ajitpratap0/logexport/pkg/errors"
	"github.com/ajitpratap0/logexport/pkg/logger"
	"github.com/ajitpratap0/logexport/pkg/metrics"
)

// describePageSize is the largest page DescribeLogGroups accepts
const describePageSize = 50

// CloudWatchLogsAPI is the subset of the CloudWatch Logs client used here.
type CloudWatchLogsAPI interface {
	cloudwatchlogs.DescribeLogGroupsAPIClient
	CreateExportTask(ctx context.Context, params *cloudwatchlogs.CreateExportTaskInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateExportTaskOutput, error)
}

var (
	_ CloudWatchLogsAPI = (*cloudwatchlogs.Client)(nil)
	_ Submitter         = (*CloudWatch)(nil)
	_ Lister            = (*CloudWatch)(nil)
)

// CloudWatch submits exports and lists log groups through CloudWatch Logs.
type CloudWatch struct {
	client CloudWatchLogsAPI
}

// NewCloudWatch wraps a CloudWatch Logs client
func NewCloudWatch(client CloudWatchLogsAPI) *CloudWatch {
	return &CloudWatch{client: client}
}

// Submit calls CreateExportTask for req. Service errors come back wrapped
// with their classified type so callers can record it.
func (c *CloudWatch) Submit(ctx context.Context, req Request) (Task, error) {
	if err := req.Validate(); err != nil {
		return Task{}, err
	}

	input := &cloudwatchlogs.CreateExportTaskInput{
		LogGroupName: aws.String(req.LogGroupName),
		From:         aws.Int64(req.From.UnixMilli()),
		To:           aws.Int64(req.To.UnixMilli()),
		Destination:  aws.String(req.Bucket),
	}
	if req.Prefix != "" {
		input.DestinationPrefix = aws.String(req.Prefix)
	}
	if req.TaskName != "" {
		input.TaskName = aws.String(req.TaskName)
	}

	start := time.Now()
	out, err := c.client.CreateExportTask(ctx, input)
	metrics.SubmitLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return Task{}, errors.Wrap(err, errors.Classify(err), "failed to create export task").
			WithDetail("log_group", req.LogGroupName).
			WithDetail("destination", req.Destination())
	}

	task := Task{ID: aws.ToString(out.TaskId), Request: req}
	logger.WithContext(ctx).Debug("export task created",
		zap.String("task_id", task.ID),
		zap.String("destination", req.Destination()))
	return task, nil
}

// ListLogGroups returns every log group in the account and region
func (c *CloudWatch) ListLogGroups(ctx context.Context) ([]LogGroup, error) {
	paginator := cloudwatchlogs.NewDescribeLogGroupsPaginator(c.client, &cloudwatchlogs.DescribeLogGroupsInput{
		Limit: aws.Int32(describePageSize),
	})

	var groups []LogGroup
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, errors.Classify(err), "failed to describe log groups")
		}
		for _, g := range page.LogGroups {
			groups = append(groups, LogGroup{
				Name:         aws.ToString(g.LogGroupName),
				StoredBytes:  aws.ToInt64(g.StoredBytes),
				CreationTime: time.UnixMilli(aws.ToInt64(g.CreationTime)),
			})
		}
	}
	return groups, nil
}
