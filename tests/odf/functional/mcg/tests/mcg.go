package tests

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/red-hat-storage/odf-gotests/pkg/bucketclaim"
	"github.com/red-hat-storage/odf-gotests/pkg/configmap"
	"github.com/red-hat-storage/odf-gotests/pkg/namespace"
	"github.com/red-hat-storage/odf-gotests/pkg/noobaa"
	"github.com/red-hat-storage/odf-gotests/pkg/secret"
	"github.com/red-hat-storage/odf-gotests/pkg/service"
	"github.com/red-hat-storage/odf-gotests/tests/internal/params"
	"github.com/red-hat-storage/odf-gotests/tests/internal/polarion"
	"github.com/red-hat-storage/odf-gotests/tests/odf/functional/mcg/internal/tsparams"
	. "github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfinittools"
	"github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfparams"
)

var _ = Describe(
	"MCG object service",
	Ordered,
	ContinueOnFailure,
	Label(tsparams.Label), func() {
		var noobaaSystem *noobaa.Builder

		BeforeAll(func() {
			By("Verifying the NooBaa system is ready")

			var err error
			noobaaSystem, err = noobaa.Pull(APIClient, tsparams.NooBaaName, ODFConfig.StorageNamespace)
			Expect(err).ToNot(HaveOccurred(), "Failed to pull the NooBaa system")
			Expect(noobaaSystem.WaitUntilReady(odfparams.DefaultTimeout)).ToNot(
				HaveOccurred(), "NooBaa system never became ready")

			By("Creating the test namespace")
			_, err = namespace.NewBuilder(APIClient, tsparams.TestNamespace).
				WithMultipleLabels(params.PrivilegedNSLabels).
				WithMultipleLabels(odfparams.OwnedNamespaceLabels).
				Create()
			Expect(err).ToNot(HaveOccurred(), "Failed to create the test namespace")
		})

		AfterAll(func() {
			By("Removing the test namespace")
			err := namespace.NewBuilder(APIClient, tsparams.TestNamespace).
				DeleteAndWait(odfparams.DefaultTimeout)
			Expect(err).ToNot(HaveOccurred(), "Failed to delete the test namespace")
		})

		It("Binds an object bucket claim", polarion.ID("38620"), func() {
			claim, err := bucketclaim.NewBuilder(
				APIClient, tsparams.ClaimName, tsparams.TestNamespace, ODFConfig.MCGStorageClass).Create()
			Expect(err).ToNot(HaveOccurred(), "Failed to create the bucket claim")

			Expect(claim.WaitUntilBound(odfparams.DefaultTimeout)).ToNot(
				HaveOccurred(), "Bucket claim never bound")

			bucketName, err := claim.BucketName()
			Expect(err).ToNot(HaveOccurred(), "Bound claim carries no bucket name")
			Expect(bucketName).ToNot(BeEmpty(), "Bound claim carries an empty bucket name")

			By("Verifying the generated bucket configmap")
			bucketConfigMap, err := configmap.Pull(APIClient, tsparams.ClaimName, tsparams.TestNamespace)
			Expect(err).ToNot(HaveOccurred(), "Bound claim generated no bucket configmap")
			Expect(bucketConfigMap.Object.Data["BUCKET_NAME"]).To(
				Equal(bucketName), "Bucket configmap disagrees with the claim on the bucket name")
			Expect(bucketConfigMap.Object.Data["BUCKET_HOST"]).ToNot(
				BeEmpty(), "Bucket configmap carries no bucket host")
		})

		It("Round trips an object through the S3 endpoint", polarion.ID("38621"), func() {
			By("Verifying the s3 service fronts the endpoint")

			s3Service, err := service.Pull(APIClient, tsparams.S3ServiceName, ODFConfig.StorageNamespace)
			Expect(err).ToNot(HaveOccurred(), "NooBaa deployed no s3 service")
			Expect(s3Service.Object.Spec.Ports).ToNot(BeEmpty(), "The s3 service exposes no ports")

			By("Resolving the S3 endpoint and claim credentials")

			endpoint, err := noobaaSystem.S3Endpoint()
			Expect(err).ToNot(HaveOccurred(), "NooBaa system exposes no S3 endpoint")

			claim, err := bucketclaim.Pull(APIClient, tsparams.ClaimName, tsparams.TestNamespace)
			Expect(err).ToNot(HaveOccurred(), "Failed to pull the bucket claim")

			bucketName, err := claim.BucketName()
			Expect(err).ToNot(HaveOccurred(), "Failed to read the bucket name")

			credentialsSecret, err := secret.Pull(APIClient, tsparams.ClaimName, tsparams.TestNamespace)
			Expect(err).ToNot(HaveOccurred(), "Bucket claim generated no credentials secret")

			accessKey := string(credentialsSecret.Object.Data["AWS_ACCESS_KEY_ID"])
			secretKey := string(credentialsSecret.Object.Data["AWS_SECRET_ACCESS_KEY"])
			Expect(accessKey).ToNot(BeEmpty(), "Credentials secret misses the access key")
			Expect(secretKey).ToNot(BeEmpty(), "Credentials secret misses the secret key")

			objectClient := newObjectClient(endpoint, accessKey, secretKey)

			By("Writing the object")

			_, err = objectClient.PutObject(context.TODO(), &s3.PutObjectInput{
				Bucket: aws.String(bucketName),
				Key:    aws.String(tsparams.ObjectKey),
				Body:   strings.NewReader(tsparams.ObjectBody),
			})
			Expect(err).ToNot(HaveOccurred(), "Failed to put the object")

			By("Reading the object back")

			getOutput, err := objectClient.GetObject(context.TODO(), &s3.GetObjectInput{
				Bucket: aws.String(bucketName),
				Key:    aws.String(tsparams.ObjectKey),
			})
			Expect(err).ToNot(HaveOccurred(), "Failed to get the object")

			body, err := io.ReadAll(getOutput.Body)
			Expect(err).ToNot(HaveOccurred(), "Failed to read the object body")
			Expect(getOutput.Body.Close()).ToNot(HaveOccurred())
			Expect(string(body)).To(Equal(tsparams.ObjectBody), "Read object does not match what was written")
		})

		It("Releases the bucket on claim deletion", polarion.ID("38622"), func() {
			claim, err := bucketclaim.Pull(APIClient, tsparams.ClaimName, tsparams.TestNamespace)
			Expect(err).ToNot(HaveOccurred(), "Failed to pull the bucket claim")

			Expect(claim.DeleteAndWait(odfparams.DefaultTimeout)).ToNot(
				HaveOccurred(), "Failed to delete the bucket claim")
		})
	})

// newObjectClient builds an S3 client against the NooBaa endpoint. The route
// terminates TLS with a self signed certificate, so verification is off.
func newObjectClient(endpoint, accessKey, secretKey string) *s3.Client {
	httpClient := awshttp.NewBuildableClient().WithTransportOptions(func(transport *http.Transport) {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	})

	cfg := aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		HTTPClient:  httpClient,
	}

	return s3.NewFromConfig(cfg, func(options *s3.Options) {
		options.BaseEndpoint = aws.String(endpoint)
		options.UsePathStyle = true
	})
}
