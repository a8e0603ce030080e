package provision

import "github.com/ajitpratap0/logexport/pkg/config"

// Logical resource names
const (
	BucketResource          = "LogExportBucket"
	BucketPolicyResource    = "LogExportBucketPolicy"
	QueueResource           = "NotificationQueue"
	QueuePolicyResource     = "NotificationQueuePolicy"
	ConfigTableResource     = "ConfigTable"
	LeaseTableResource      = "LeaseTable"
	RoleResource            = "ExportFunctionRole"
	FunctionResource        = "ExportFunction"
	ScheduleResource        = "ExportSchedule"
	SchedulePermission      = "ExportSchedulePermission"
	paramSchedule           = "ScheduleExpression"
	paramTimeRange          = "ExportTimeRangeMinutes"
	paramTransitionDays     = "TransitionDays"
	paramCodeBucket         = "CodeBucket"
	paramCodeKey            = "CodeKey"
	paramConcurrency        = "ExportConcurrency"
	notificationEventFilter = "s3:ObjectCreated:*"
)

func ref(name string) map[string]any {
	return map[string]any{"Ref": name}
}

func getAtt(name, attr string) map[string]any {
	return map[string]any{"Fn::GetAtt": []any{name, attr}}
}

func sub(s string) map[string]any {
	return map[string]any{"Fn::Sub": s}
}

func intPtr(v int) *int { return &v }

// Build assembles the template for opts
func Build(opts Options) (*Template, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	t := &Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              opts.Description,
		Parameters: map[string]Parameter{
			paramSchedule: {
				Type:        "String",
				Description: "EventBridge rate or cron expression for the export trigger",
				Default:     opts.ScheduleExpression,
			},
			paramTimeRange: {
				Type:        "Number",
				Description: "Length in minutes of the window exported by each run",
				Default:     opts.TimeRangeMinutes,
				MinValue:    intPtr(1),
			},
			paramTransitionDays: {
				Type:        "Number",
				Description: "Days before exported objects move to Glacier",
				Default:     opts.TransitionDays,
				MinValue:    intPtr(1),
			},
			paramConcurrency: {
				Type:        "Number",
				Description: "Export submissions in flight per run",
				Default:     opts.Concurrency,
				MinValue:    intPtr(1),
			},
			paramCodeBucket: {
				Type:        "String",
				Description: "Bucket holding the function package",
			},
			paramCodeKey: {
				Type:        "String",
				Description: "Key of the function package",
			},
		},
		Resources: make(map[string]ResourceDef),
		Outputs:   make(map[string]Output),
	}

	addBucket(t, opts)
	addConfigTable(t)
	if opts.Lease {
		addLeaseTable(t)
	}
	if opts.Notifications {
		addQueue(t)
	}
	addFunction(t, opts)
	addSchedule(t)

	return t, nil
}

func addBucket(t *Template, opts Options) {
	props := map[string]any{
		"PublicAccessBlockConfiguration": map[string]any{
			"BlockPublicAcls":       true,
			"BlockPublicPolicy":     true,
			"IgnorePublicAcls":      true,
			"RestrictPublicBuckets": true,
		},
		"LifecycleConfiguration": map[string]any{
			"Rules": []any{
				map[string]any{
					"Id":     "ArchiveExports",
					"Status": "Enabled",
					"Transitions": []any{
						map[string]any{
							"StorageClass":     "GLACIER",
							"TransitionInDays": ref(paramTransitionDays),
						},
					},
				},
			},
		},
	}
	bucket := ResourceDef{Type: "AWS::S3::Bucket", Properties: props}
	if opts.Notifications {
		props["NotificationConfiguration"] = map[string]any{
			"QueueConfigurations": []any{
				map[string]any{
					"Event": notificationEventFilter,
					"Queue": getAtt(QueueResource, "Arn"),
				},
			},
		}
		bucket.DependsOn = []string{QueuePolicyResource}
	}
	t.Resources[BucketResource] = bucket

	t.Resources[BucketPolicyResource] = ResourceDef{
		Type: "AWS::S3::BucketPolicy",
		Properties: map[string]any{
			"Bucket": ref(BucketResource),
			"PolicyDocument": map[string]any{
				"Version": "2012-10-17",
				"Statement": []any{
					map[string]any{
						"Sid":       "AllowLogsGetBucketAcl",
						"Effect":    "Allow",
						"Principal": map[string]any{"Service": sub("logs.${AWS::Region}.amazonaws.com")},
						"Action":    "s3:GetBucketAcl",
						"Resource":  getAtt(BucketResource, "Arn"),
					},
					map[string]any{
						"Sid":       "AllowLogsPutObject",
						"Effect":    "Allow",
						"Principal": map[string]any{"Service": sub("logs.${AWS::Region}.amazonaws.com")},
						"Action":    "s3:PutObject",
						"Resource":  sub("${" + BucketResource + ".Arn}/*"),
						"Condition": map[string]any{
							"StringEquals": map[string]any{"s3:x-amz-acl": "bucket-owner-full-control"},
						},
					},
				},
			},
		},
	}

	t.Outputs["BucketName"] = Output{Description: "Destination bucket for exports", Value: ref(BucketResource)}
}

func addConfigTable(t *Template) {
	t.Resources[ConfigTableResource] = ResourceDef{
		Type: "AWS::DynamoDB::Table",
		Properties: map[string]any{
			"BillingMode": "PAY_PER_REQUEST",
			"AttributeDefinitions": []any{
				map[string]any{"AttributeName": "logGroupName", "AttributeType": "S"},
			},
			"KeySchema": []any{
				map[string]any{"AttributeName": "logGroupName", "KeyType": "HASH"},
			},
			"PointInTimeRecoverySpecification": map[string]any{"PointInTimeRecoveryEnabled": true},
		},
	}
	t.Outputs["ConfigTableName"] = Output{
		Description: "Configuration table, pass to logexport add",
		Value:       ref(ConfigTableResource),
	}
}

func addLeaseTable(t *Template) {
	t.Resources[LeaseTableResource] = ResourceDef{
		Type: "AWS::DynamoDB::Table",
		Properties: map[string]any{
			"BillingMode": "PAY_PER_REQUEST",
			"AttributeDefinitions": []any{
				map[string]any{"AttributeName": "logGroupName", "AttributeType": "S"},
			},
			"KeySchema": []any{
				map[string]any{"AttributeName": "logGroupName", "KeyType": "HASH"},
			},
			"TimeToLiveSpecification": map[string]any{"AttributeName": "ttl", "Enabled": true},
		},
	}
	t.Outputs["LeaseTableName"] = Output{Description: "Per log group lease table", Value: ref(LeaseTableResource)}
}

func addQueue(t *Template) {
	t.Resources[QueueResource] = ResourceDef{
		Type: "AWS::SQS::Queue",
		Properties: map[string]any{
			"MessageRetentionPeriod": 1209600,
			"SqsManagedSseEnabled":   true,
		},
	}
	t.Resources[QueuePolicyResource] = ResourceDef{
		Type: "AWS::SQS::QueuePolicy",
		Properties: map[string]any{
			"Queues": []any{ref(QueueResource)},
			"PolicyDocument": map[string]any{
				"Version": "2012-10-17",
				"Statement": []any{
					map[string]any{
						"Sid":       "AllowS3Notifications",
						"Effect":    "Allow",
						"Principal": map[string]any{"Service": "s3.amazonaws.com"},
						"Action":    "sqs:SendMessage",
						"Resource":  getAtt(QueueResource, "Arn"),
						"Condition": map[string]any{
							"StringEquals": map[string]any{"aws:SourceAccount": ref("AWS::AccountId")},
						},
					},
				},
			},
		},
	}
	t.Outputs["NotificationQueueUrl"] = Output{
		Description: "Queue receiving one message per exported object",
		Value:       ref(QueueResource),
	}
}

func addFunction(t *Template, opts Options) {
	statements := []any{
		map[string]any{
			"Effect":   "Allow",
			"Action":   []any{"logs:CreateExportTask"},
			"Resource": "*",
		},
		map[string]any{
			"Effect":   "Allow",
			"Action":   []any{"dynamodb:Scan"},
			"Resource": getAtt(ConfigTableResource, "Arn"),
		},
	}
	env := map[string]any{
		config.EnvTableName:        ref(ConfigTableResource),
		config.EnvTimeRangeMinutes: ref(paramTimeRange),
		config.EnvConcurrency:      ref(paramConcurrency),
	}
	if opts.Lease {
		statements = append(statements, map[string]any{
			"Effect":   "Allow",
			"Action":   []any{"dynamodb:PutItem"},
			"Resource": getAtt(LeaseTableResource, "Arn"),
		})
		env[config.EnvLeaseTableName] = ref(LeaseTableResource)
	}

	t.Resources[RoleResource] = ResourceDef{
		Type: "AWS::IAM::Role",
		Properties: map[string]any{
			"AssumeRolePolicyDocument": map[string]any{
				"Version": "2012-10-17",
				"Statement": []any{
					map[string]any{
						"Effect":    "Allow",
						"Principal": map[string]any{"Service": "lambda.amazonaws.com"},
						"Action":    "sts:AssumeRole",
					},
				},
			},
			"ManagedPolicyArns": []any{
				sub("arn:${AWS::Partition}:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"),
			},
			"Policies": []any{
				map[string]any{
					"PolicyName": "log-export",
					"PolicyDocument": map[string]any{
						"Version":   "2012-10-17",
						"Statement": statements,
					},
				},
			},
		},
	}

	t.Resources[FunctionResource] = ResourceDef{
		Type: "AWS::Lambda::Function",
		Properties: map[string]any{
			"Runtime":       "provided.al2023",
			"Handler":       "bootstrap",
			"Architectures": []any{opts.Architecture},
			"Code": map[string]any{
				"S3Bucket": ref(paramCodeBucket),
				"S3Key":    ref(paramCodeKey),
			},
			"Role":        getAtt(RoleResource, "Arn"),
			"Timeout":     opts.FunctionTimeout,
			"MemorySize":  opts.FunctionMemory,
			"Environment": map[string]any{"Variables": env},
		},
	}
	t.Outputs["FunctionName"] = Output{Description: "Export function", Value: ref(FunctionResource)}
}

func addSchedule(t *Template) {
	t.Resources[ScheduleResource] = ResourceDef{
		Type: "AWS::Events::Rule",
		Properties: map[string]any{
			"Description":        "Triggers the CloudWatch Logs export",
			"ScheduleExpression": ref(paramSchedule),
			"State":              "ENABLED",
			"Targets": []any{
				map[string]any{
					"Id":  FunctionResource,
					"Arn": getAtt(FunctionResource, "Arn"),
				},
			},
		},
	}
	t.Resources[SchedulePermission] = ResourceDef{
		Type: "AWS::Lambda::Permission",
		Properties: map[string]any{
			"Action":       "lambda:InvokeFunction",
			"FunctionName": ref(FunctionResource),
			"Principal":    "events.amazonaws.com",
			"SourceArn":    getAtt(ScheduleResource, "Arn"),
		},
	}
}
